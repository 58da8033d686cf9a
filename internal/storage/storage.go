// Package storage задаёт ошибки слоя хранения, общие для всех реализаций.
// Реализация на PostgreSQL находится в пакете repository.
package storage

import "errors"

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrExists — нарушено условие уникальности.
	ErrExists = errors.New("record already exists")
	// ErrInUse — запись нельзя удалить, на неё ссылаются другие записи.
	ErrInUse = errors.New("record is referenced by other records")
	// ErrNegativeBalance — изменение увело бы баланс аккаунта ниже нуля.
	ErrNegativeBalance = errors.New("balance would become negative")
	// ErrInsufficientCredits — у инициатора перевода недостаточно кредитов.
	ErrInsufficientCredits = errors.New("insufficient credits")
)
