// Package ledger — изменение баланса кредитов с проверкой прав инициатора.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/apperr"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

var (
	ErrZeroAmount          = fmt.Errorf("%w: amount must be non-zero", apperr.ErrValidation)
	ErrSelfAdjustment      = fmt.Errorf("%w: cannot adjust own balance", apperr.ErrForbidden)
	ErrNotManaged          = fmt.Errorf("%w: target account is not managed by actor", apperr.ErrForbidden)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", apperr.ErrForbidden)
	ErrNegativeBalance     = fmt.Errorf("%w: balance cannot go below zero", apperr.ErrValidation)
)

// Repository — хранилище аккаунтов с атомарным изменением баланса.
type Repository interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	AdjustCredits(ctx context.Context, adj models.CreditAdjustment) error
}

// Service применяет изменения баланса.
type Service struct {
	repo    Repository
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New создаёт Service.
func New(repo Repository, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		log:     log,
		metrics: m,
	}
}

// Adjust меняет баланс targetID на amount от имени actorID.
// Положительный amount начисляет кредиты, отрицательный списывает.
// Новый баланс не возвращается: вызывающий перечитывает аккаунты сам.
func (s *Service) Adjust(ctx context.Context, actorID, targetID string, amount int64) error {
	const op = "ledger.Adjust"
	log := s.log.With(sl.Op(op), slog.String("actor_id", actorID), slog.String("target_id", targetID),
		slog.Int64("amount", amount))

	err := s.adjust(ctx, actorID, targetID, amount)
	switch {
	case err == nil:
		s.metrics.CreditAdjustments.WithLabelValues(metrics.ResultOK).Inc()
		log.Info("credits adjusted")
		return nil
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrForbidden):
		s.metrics.CreditAdjustments.WithLabelValues(metrics.ResultRejected).Inc()
		log.Warn("credit adjustment rejected", sl.Err(err))
	default:
		s.metrics.CreditAdjustments.WithLabelValues(metrics.ResultError).Inc()
		log.Error("credit adjustment failed", sl.Err(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) adjust(ctx context.Context, actorID, targetID string, amount int64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if actorID == targetID {
		return ErrSelfAdjustment
	}

	actor, err := s.repo.GetAccount(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := s.repo.GetAccount(ctx, targetID)
	if err != nil {
		return err
	}

	if !CanManage(actor, target) {
		return ErrNotManaged
	}
	if !CanCover(actor, amount) {
		return ErrInsufficientBalance
	}

	err = s.repo.AdjustCredits(ctx, models.CreditAdjustment{
		ActorID:  actor.ID,
		TargetID: target.ID,
		Amount:   amount,
		Transfer: IsTransfer(actor),
	})
	switch {
	case errors.Is(err, storage.ErrInsufficientCredits):
		return fmt.Errorf("%w: %w", ErrInsufficientBalance, err)
	case errors.Is(err, storage.ErrNegativeBalance):
		return fmt.Errorf("%w: %w", ErrNegativeBalance, err)
	}
	return err
}
