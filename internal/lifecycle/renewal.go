package lifecycle

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/dates"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// NextExpiration вычисляет дату окончания после продления по тарифу plan.
// Отсчёт ведётся от более поздней из дат: сегодня или текущее окончание,
// поэтому активная подписка не теряет оставшиеся дни, а истёкшая не продлевается задним числом.
func NextExpiration(plan models.Plan, current, now time.Time) (time.Time, error) {
	if plan.DurationValue <= 0 {
		return time.Time{}, fmt.Errorf("plan %d: duration must be positive, got %d", plan.ID, plan.DurationValue)
	}
	base := dates.Later(dates.Day(now), dates.Day(current))

	switch plan.DurationUnit {
	case models.UnitMonths:
		return dates.AddMonths(base, plan.DurationValue), nil
	case models.UnitDays:
		return dates.AddDays(base, plan.DurationValue), nil
	default:
		return time.Time{}, fmt.Errorf("plan %d: unknown duration unit %q", plan.ID, plan.DurationUnit)
	}
}

// InitialExpiration — дата окончания новой подписки без явно заданной даты.
func InitialExpiration(plan models.Plan, now time.Time) (time.Time, error) {
	return NextExpiration(plan, time.Time{}, now)
}
