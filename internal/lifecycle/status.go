// Package lifecycle содержит чистые функции жизненного цикла подписки клиента:
// вычисление статуса по дате окончания и расчёт новой даты при продлении.
// Функции не обращаются к хранилищу и зависят только от аргументов.
package lifecycle

import (
	"math"
	"time"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// NearExpiryDays — сколько дней до окончания подписка считается истекающей.
const NearExpiryDays = 5

// DaysLeft возвращает ceil((полночь даты окончания − now) / 1 день).
// Полночь берётся в часовом поясе now, календарный день — из expiration.
func DaysLeft(expiration, now time.Time) int {
	y, m, d := expiration.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	days := math.Ceil(midnight.Sub(now).Hours() / 24)
	return int(days)
}

// DeriveStatus вычисляет статус клиента на момент now.
func DeriveStatus(expiration, now time.Time) models.Status {
	switch left := DaysLeft(expiration, now); {
	case left < 0:
		return models.StatusExpired
	case left <= NearExpiryDays:
		return models.StatusNearExpiry
	default:
		return models.StatusActive
	}
}

// View дополняет клиента статусом, вычисленным на момент now.
func View(c models.Client, now time.Time) models.ClientView {
	return models.ClientView{
		Client: c,
		Status: DeriveStatus(c.ExpirationDate, now),
	}
}

// Views применяет View к списку клиентов.
func Views(clients []*models.Client, now time.Time) []*models.ClientView {
	result := make([]*models.ClientView, 0, len(clients))
	for _, c := range clients {
		v := View(*c, now)
		result = append(result, &v)
	}
	return result
}
