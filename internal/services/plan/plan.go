// Package plan — каталог тарифных планов.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/apperr"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// ErrNotOwner — менять тариф может только его владелец или админ.
var ErrNotOwner = fmt.Errorf("%w: plan belongs to another account", apperr.ErrForbidden)

// Repository описывает хранилище тарифов.
type Repository interface {
	SavePlan(ctx context.Context, p models.Plan) (int64, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	DeletePlan(ctx context.Context, id int64) error
}

// Service управляет тарифами.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создаёт Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func validate(req models.DummyPlan) (models.Plan, error) {
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return models.Plan{}, apperr.Validation("plan name is required")
	case req.Price < 0:
		return models.Plan{}, apperr.Validation("price must not be negative")
	case req.DurationValue <= 0:
		return models.Plan{}, apperr.Validation("duration must be positive")
	case !models.DurationUnit(req.DurationUnit).Valid():
		return models.Plan{}, apperr.Validation("duration unit must be days or months")
	}
	return models.Plan{
		Name:          name,
		Price:         req.Price,
		DurationValue: req.DurationValue,
		DurationUnit:  models.DurationUnit(req.DurationUnit),
	}, nil
}

// Create добавляет тариф, владельцем становится actor.
func (s *Service) Create(ctx context.Context, actor *models.Account, req models.DummyPlan) (int64, error) {
	p, err := validate(req)
	if err != nil {
		return 0, err
	}
	p.OwnerID = actor.ID

	id, err := s.repo.SavePlan(ctx, p)
	if err != nil {
		return 0, err
	}
	s.log.Info("plan created", slog.Int64("id", id), slog.String("owner_id", actor.ID))
	return id, nil
}

// Update заменяет тариф целиком.
func (s *Service) Update(ctx context.Context, actor *models.Account, id int64, req models.DummyPlan) error {
	p, err := validate(req)
	if err != nil {
		return err
	}
	existing, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	p.ID = existing.ID
	p.OwnerID = existing.OwnerID

	if _, err := s.repo.SavePlan(ctx, p); err != nil {
		return err
	}
	s.log.Info("plan updated", slog.Int64("id", id))
	return nil
}

// Delete удаляет тариф. Тариф, на который ссылаются клиенты, удалить нельзя.
func (s *Service) Delete(ctx context.Context, actor *models.Account, id int64) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.log.Info("plan deleted", slog.Int64("id", id))
	return nil
}

// Get возвращает тариф по ID.
func (s *Service) Get(ctx context.Context, id int64) (*models.Plan, error) {
	return s.repo.GetPlan(ctx, id)
}

// List возвращает весь каталог.
func (s *Service) List(ctx context.Context) ([]*models.Plan, error) {
	return s.repo.ListPlans(ctx)
}

func (s *Service) editable(ctx context.Context, actor *models.Account, id int64) (*models.Plan, error) {
	p, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && p.OwnerID != actor.ID {
		return nil, ErrNotOwner
	}
	return p, nil
}
