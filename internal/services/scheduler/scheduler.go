// Package scheduler — периодический поиск клиентов с истекающей подпиской
// и публикация уведомлений о них.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/dates"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/lifecycle"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// Repository выбирает клиентов по диапазону дат окончания (включительно, формат 2006-01-02).
type Repository interface {
	ListClientsExpiringBetween(ctx context.Context, from, to string) ([]*models.Client, error)
}

// Publisher публикует уведомления.
type Publisher interface {
	PublishExpiryNotice(ctx context.Context, n models.ExpiryNotice) error
}

// Service ищет клиентов в статусе near_expiry.
type Service struct {
	repo    Repository
	events  Publisher
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService создаёт Service.
func NewService(repo Repository, events Publisher, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// NotifyNearExpiry публикует уведомление для каждого клиента в статусе near_expiry
// и возвращает число опубликованных уведомлений. Ошибка публикации одного
// уведомления не останавливает обход.
func (s *Service) NotifyNearExpiry(ctx context.Context) (int, error) {
	const op = "scheduler.NotifyNearExpiry"
	log := s.log.With(sl.Op(op))

	now := s.now()
	today := dates.Day(now)
	// Диапазон с запасом в день с каждой стороны: точный статус считает DeriveStatus.
	from := dates.AddDays(today, -1).Format(models.DateLayout)
	to := dates.AddDays(today, lifecycle.NearExpiryDays+1).Format(models.DateLayout)

	clients, err := s.repo.ListClientsExpiringBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sent := 0
	for _, c := range clients {
		status := lifecycle.DeriveStatus(c.ExpirationDate, now)
		if status != models.StatusNearExpiry {
			continue
		}
		err := s.events.PublishExpiryNotice(ctx, models.ExpiryNotice{
			ClientID:       c.ID,
			OwnerID:        c.OwnerID,
			Name:           c.Name,
			Phone:          c.Phone,
			ExpirationDate: c.ExpirationDate,
			Status:         status,
		})
		if err != nil {
			log.Error("failed to publish expiry notice", slog.Int64("client_id", c.ID), sl.Err(err))
			continue
		}
		sent++
	}
	s.metrics.ExpiryNotices.Add(float64(sent))

	log.Info("near-expiry scan finished", slog.Int("candidates", len(clients)), slog.Int("sent", sent))
	return sent, nil
}

// Run выполняет NotifyNearExpiry по расписанию spec (стандартный cron, 5 полей)
// до отмены ctx.
func (s *Service) Run(ctx context.Context, spec string) error {
	const op = "scheduler.Run"

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := s.NotifyNearExpiry(ctx); err != nil {
			s.log.Error("near-expiry scan failed", sl.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("%s: invalid schedule %q: %w", op, spec, err)
	}

	s.log.Info("expiry scheduler started", slog.String("spec", spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("expiry scheduler stopped")
	return nil
}
