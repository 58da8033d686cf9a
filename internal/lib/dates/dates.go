// Package dates содержит календарную арифметику для дат без времени.
// Дата представляется как time.Time в полночь UTC.
package dates

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// Day отбрасывает время, сохраняя календарный день в исходной временной зоне t.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Later возвращает более позднюю из двух дат.
func Later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// AddMonths прибавляет календарные месяцы.
// Переполнение дня нормализуется вперёд, как в time.AddDate:
// 31 января + 1 месяц = 3 марта (2 марта в високосный год).
func AddMonths(day time.Time, n int) time.Time {
	return day.AddDate(0, n, 0)
}

// AddDays прибавляет дни.
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// Parse разбирает дату в формате 2006-01-02.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
