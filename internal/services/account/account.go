// Package account содержит регистрацию, вход, субаккаунты и применение
// платёжных событий к аккаунтам панели.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/apperr"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/password"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

var (
	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken — email уже зарегистрирован.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", storage.ErrExists)
	// ErrAdminSubAccount — администраторы создаются только через resellerctl.
	ErrAdminSubAccount = fmt.Errorf("%w: admin accounts cannot be created through the API", apperr.ErrForbidden)
	// ErrInvalidPaymentEvent — событие без ключа аккаунта или с неизвестным статусом.
	ErrInvalidPaymentEvent = fmt.Errorf("%w: invalid payment event", apperr.ErrValidation)
)

// Repository описывает хранилище аккаунтов.
type Repository interface {
	CreateAccount(ctx context.Context, a models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	ListChildren(ctx context.Context, parentID string) ([]*models.Account, error)
	SetSubscriptionStatus(ctx context.Context, accountID string, status models.SubscriptionStatus) error
	SetSubscriptionStatusByCustomer(ctx context.Context, customerID string, status models.SubscriptionStatus) error
}

// Service управляет аккаунтами.
type Service struct {
	repo     Repository
	jwtMaker jwt.Maker
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New создаёт Service.
func New(repo Repository, jwtMaker jwt.Maker, log *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		jwtMaker: jwtMaker,
		log:      log,
		metrics:  m,
	}
}

// Signup регистрирует корневого реселлера с нулевым балансом.
func (s *Service) Signup(ctx context.Context, req models.DummyAccount) (*models.Account, error) {
	return s.create(ctx, req.Email, req.Password, models.RoleReseller, nil)
}

// CreateSubAccount создаёт реселлера, родителем которого становится actorID.
func (s *Service) CreateSubAccount(ctx context.Context, actorID string, req models.DummyAccount) (*models.Account, error) {
	if req.Role != "" && models.Role(req.Role) != models.RoleReseller {
		return nil, ErrAdminSubAccount
	}
	actor, err := s.repo.GetAccount(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, req.Email, req.Password, models.RoleReseller, &actor.ID)
}

// CreateAdmin создаёт администратора. Вызывается только из resellerctl.
func (s *Service) CreateAdmin(ctx context.Context, email, rawPassword string) (*models.Account, error) {
	return s.create(ctx, email, rawPassword, models.RoleAdmin, nil)
}

func (s *Service) create(ctx context.Context, email, rawPassword string, role models.Role, parentID *string) (*models.Account, error) {
	const op = "account.create"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || rawPassword == "" {
		return nil, apperr.Validation("email and password are required")
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := models.Account{
		ID:                 uuid.NewString(),
		Email:              email,
		PasswordHash:       hashed,
		Role:               role,
		ParentID:           parentID,
		SubscriptionStatus: models.SubscriptionActive,
	}
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("account created", slog.String("id", a.ID), slog.String("role", string(role)))
	return &a, nil
}

// Login проверяет пароль и возвращает JWT.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, *models.Account, error) {
	const op = "account.Login"

	a, err := s.repo.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(a.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(a.ID, a.Email, string(a.Role))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, a, nil
}

// Get возвращает аккаунт по ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// ListVisible возвращает аккаунты, которые видит actor:
// админ — все, реселлер — своих прямых потомков.
func (s *Service) ListVisible(ctx context.Context, actor *models.Account) ([]*models.Account, error) {
	if actor.IsAdmin() {
		return s.repo.ListAccounts(ctx)
	}
	return s.repo.ListChildren(ctx, actor.ID)
}

// ApplyPaymentEvent переключает флаг подписки аккаунта.
// Аккаунт ищется по AccountID, при пустом AccountID по CustomerID.
func (s *Service) ApplyPaymentEvent(ctx context.Context, ev models.PaymentEvent) error {
	const op = "account.ApplyPaymentEvent"
	log := s.log.With(sl.Op(op), slog.String("account_id", ev.AccountID),
		slog.String("customer_id", ev.CustomerID), slog.String("status", string(ev.Status)))

	if ev.Status != models.SubscriptionActive && ev.Status != models.SubscriptionExpired {
		s.metrics.PaymentEvents.WithLabelValues(metrics.ResultRejected).Inc()
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPaymentEvent, ev.Status)
	}

	var err error
	switch {
	case ev.AccountID != "":
		err = s.repo.SetSubscriptionStatus(ctx, ev.AccountID, ev.Status)
	case ev.CustomerID != "":
		err = s.repo.SetSubscriptionStatusByCustomer(ctx, ev.CustomerID, ev.Status)
	default:
		s.metrics.PaymentEvents.WithLabelValues(metrics.ResultRejected).Inc()
		return fmt.Errorf("%w: account_id or customer_id required", ErrInvalidPaymentEvent)
	}
	if err != nil {
		s.metrics.PaymentEvents.WithLabelValues(metrics.ResultError).Inc()
		log.Error("failed to apply payment event", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.PaymentEvents.WithLabelValues(metrics.ResultOK).Inc()
	log.Info("payment event applied")
	return nil
}
