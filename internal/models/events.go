package models

import "time"

// PaymentEvent — внешнее событие оплаты, переключающее флаг подписки аккаунта.
// Аккаунт ищется по AccountID, иначе по CustomerID.
type PaymentEvent struct {
	AccountID  string             `json:"account_id,omitempty"`
	CustomerID string             `json:"customer_id,omitempty"`
	Status     SubscriptionStatus `json:"status"`
}

// ReconciliationEvent публикуется, когда удалённый провижининг и локальные
// записи могли разойтись и требуется ручная сверка.
type ReconciliationEvent struct {
	Operation  string    `json:"operation"`
	ServerID   int64     `json:"server_id"`
	ClientID   int64     `json:"client_id,omitempty"`
	Username   string    `json:"username"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExpiryNotice — уведомление о скором окончании подписки клиента.
type ExpiryNotice struct {
	ClientID       int64     `json:"client_id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	ExpirationDate time.Time `json:"expiration_date"`
	Status         Status    `json:"status"`
}
