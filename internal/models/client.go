package models

import "time"

// Status — производное состояние подписки клиента. В хранилище не пишется.
type Status string

const (
	StatusActive     Status = "active"
	StatusNearExpiry Status = "near_expiry"
	StatusExpired    Status = "expired"
)

// DateLayout — формат календарной даты в API.
const DateLayout = "2006-01-02"

// ProvisioningCredentials — учётные данные, выданные удалённым сервером.
type ProvisioningCredentials struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AccessURL string `json:"access_url"`
}

// Client — подписка конечного клиента.
// ExpirationDate хранит только дату, время всегда полночь UTC.
type Client struct {
	ID             int64     `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Password       string    `json:"password"`
	Phone          string    `json:"phone"`
	ServerID       int64     `json:"server_id"`
	PlanID         int64     `json:"plan_id"`
	ExpirationDate time.Time `json:"expiration_date"`
	AccessURL      string    `json:"access_url,omitempty"`
}

// ClientView — клиент вместе с вычисленным на момент чтения статусом.
type ClientView struct {
	Client
	Status Status `json:"status"`
}

// DummyClient используется для приёма клиента из JSON-запроса.
// ExpirationDate в формате 2006-01-02, при создании может быть пустой.
type DummyClient struct {
	Name           string `json:"name" validate:"required"`
	Username       string `json:"username" validate:"required"`
	Password       string `json:"password" validate:"required"`
	Phone          string `json:"phone"`
	ServerID       int64  `json:"server_id" validate:"required,gt=0"`
	PlanID         int64  `json:"plan_id" validate:"required,gt=0"`
	ExpirationDate string `json:"expiration_date,omitempty"`
}

// DummyRenew — параметры продления. Оба поля необязательны.
type DummyRenew struct {
	PlanID         *int64 `json:"plan_id,omitempty" validate:"omitempty,gt=0"`
	ExpirationDate string `json:"expiration_date,omitempty"`
}

// RenewResult — итог продления. RemoteError заполняется, если удалённое продление не удалось.
type RenewResult struct {
	ClientID       int64     `json:"client_id"`
	ExpirationDate time.Time `json:"expiration_date"`
	PlanID         int64     `json:"plan_id"`
	RemoteRenewed  bool      `json:"remote_renewed"`
	RemoteError    string    `json:"remote_error,omitempty"`
}
