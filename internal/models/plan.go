package models

// DurationUnit — единица длительности тарифа.
type DurationUnit string

const (
	UnitDays   DurationUnit = "days"
	UnitMonths DurationUnit = "months"
)

// Valid сообщает, поддерживается ли единица.
func (u DurationUnit) Valid() bool {
	return u == UnitDays || u == UnitMonths
}

// Plan — тарифный план, на который ссылаются клиенты.
type Plan struct {
	ID            int64        `json:"id"`
	OwnerID       string       `json:"owner_id"`
	Name          string       `json:"name"`
	Price         float64      `json:"price"`
	DurationValue int          `json:"duration_value"`
	DurationUnit  DurationUnit `json:"duration_unit"`
}

// DummyPlan используется для приёма тарифа из JSON-запроса.
type DummyPlan struct {
	Name          string  `json:"name" validate:"required"`
	Price         float64 `json:"price" validate:"gte=0"`
	DurationValue int     `json:"duration_value" validate:"required,gt=0"`
	DurationUnit  string  `json:"duration_unit" validate:"required,oneof=days months"`
}
