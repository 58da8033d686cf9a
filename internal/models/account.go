// Package models содержит доменные структуры панели реселлера: аккаунты,
// серверы, тарифные планы и клиентские подписки, а также DTO для приёма
// данных из JSON-запросов.
package models

import "time"

// Role — роль аккаунта в иерархии.
type Role string

const (
	// RoleAdmin — администратор, может начислять кредиты без ограничений.
	RoleAdmin Role = "admin"
	// RoleReseller — реселлер, тратит собственный баланс.
	RoleReseller Role = "reseller"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReseller
}

// SubscriptionStatus — флаг оплаты доступа к панели, выставляемый внешним платёжным событием.
type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Account представляет администратора или реселлера.
// ParentID пустой у корневых аккаунтов; родитель не меняется после создания.
type Account struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	PasswordHash       string             `json:"-"`
	Role               Role               `json:"role"`
	Credits            int64              `json:"credits"`
	ParentID           *string            `json:"parent_id,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	ExternalCustomerID *string            `json:"external_customer_id,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// IsAdmin возвращает true для администратора.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CreditAdjustment описывает одну атомарную операцию над балансом.
// При Transfer встречное движение применяется к балансу инициатора.
type CreditAdjustment struct {
	ActorID  string
	TargetID string
	Amount   int64
	Transfer bool
}

// DummyAccount используется для приёма данных регистрации и создания субаккаунта.
type DummyAccount struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=admin reseller"`
}

// DummyLogin — тело запроса на вход.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyCredits — тело запроса на изменение баланса.
type DummyCredits struct {
	Amount int64 `json:"amount" validate:"required"`
}
