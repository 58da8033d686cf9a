// Package client оркестрирует подписки конечных клиентов: создание с удалённым
// провижинингом, изменение, удаление, список со статусами и продление.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/apperr"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/dates"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/lifecycle"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/provisioning"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

// ErrForeignClient — клиент принадлежит аккаунту вне поддерева инициатора.
var ErrForeignClient = fmt.Errorf("%w: client is owned by another account", apperr.ErrForbidden)

// Repository описывает хранилище клиентов и справочников, нужных для их проверки.
type Repository interface {
	SaveClient(ctx context.Context, c models.Client) (int64, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	ListClients(ctx context.Context, ownerIDs []string) ([]*models.Client, error)
	ListAllClients(ctx context.Context) ([]*models.Client, error)
	DeleteClient(ctx context.Context, id int64) error
	ListSubtreeIDs(ctx context.Context, rootID string) ([]string, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
}

// ServerSource возвращает сервер по ID.
type ServerSource interface {
	Get(ctx context.Context, id int64) (*models.Server, error)
}

// Provisioner — удалённый API провижининга.
type Provisioner interface {
	CreateRemoteAccount(ctx context.Context, server *models.Server, req provisioning.CreateAccountRequest) (*models.ProvisioningCredentials, error)
	RenewRemoteAccount(ctx context.Context, server *models.Server, username string, extensionDays int) error
}

// Publisher публикует события для ручной сверки.
type Publisher interface {
	PublishReconciliation(ctx context.Context, ev models.ReconciliationEvent) error
}

// Service управляет клиентами.
type Service struct {
	repo          Repository
	servers       ServerSource
	provisioner   Provisioner
	events        Publisher
	log           *slog.Logger
	metrics       *metrics.Metrics
	extensionDays int
	now           func() time.Time
}

// New создаёт Service. extensionDays — фиксированное окно удалённого продления.
func New(repo Repository, servers ServerSource, provisioner Provisioner, events Publisher,
	log *slog.Logger, m *metrics.Metrics, extensionDays int) *Service {
	return &Service{
		repo:          repo,
		servers:       servers,
		provisioner:   provisioner,
		events:        events,
		log:           log,
		metrics:       m,
		extensionDays: extensionDays,
		now:           time.Now,
	}
}

// WithClock подменяет источник текущего времени.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now возвращает текущее время сервиса.
func (s *Service) Now() time.Time {
	return s.now()
}

func validateInput(req models.DummyClient) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return apperr.Validation("client name is required")
	case strings.TrimSpace(req.Username) == "":
		return apperr.Validation("username is required")
	case req.Password == "":
		return apperr.Validation("password is required")
	case req.ServerID <= 0:
		return apperr.Validation("server is required")
	case req.PlanID <= 0:
		return apperr.Validation("plan is required")
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := dates.Parse(s)
	if err != nil {
		return time.Time{}, apperr.Validation(err.Error())
	}
	return t, nil
}

// reference оборачивает отсутствие связанной записи в ошибку валидации.
func reference(kind string, id int64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s %d does not exist", apperr.ErrValidation, kind, id)
	}
	return err
}

// Create создаёт клиента. Если на сервере настроен провижининг, сначала создаётся
// удалённая учётная запись: её логин, пароль и ссылка заменяют введённые.
// Сбой удалённого вызова не мешает созданию, клиент сохраняется с исходными данными.
func (s *Service) Create(ctx context.Context, actor *models.Account, req models.DummyClient) (*models.Client, error) {
	const op = "client.Create"
	if err := validateInput(req); err != nil {
		return nil, err
	}
	var manual time.Time
	if req.ExpirationDate != "" {
		var err error
		if manual, err = parseDate(req.ExpirationDate); err != nil {
			return nil, err
		}
	}

	plan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, reference("plan", req.PlanID, err)
	}
	server, err := s.servers.Get(ctx, req.ServerID)
	if err != nil {
		return nil, reference("server", req.ServerID, err)
	}

	c := models.Client{
		OwnerID:        actor.ID,
		Name:           strings.TrimSpace(req.Name),
		Username:       strings.TrimSpace(req.Username),
		Password:       req.Password,
		Phone:          strings.TrimSpace(req.Phone),
		ServerID:       server.ID,
		PlanID:         plan.ID,
		ExpirationDate: manual,
	}
	if manual.IsZero() {
		if c.ExpirationDate, err = lifecycle.InitialExpiration(*plan, s.now()); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	log := s.log.With(sl.Op(op), slog.Int64("server_id", server.ID), slog.String("username", c.Username))

	remoteCreated := false
	if server.CanProvision() {
		creds, err := s.provisioner.CreateRemoteAccount(ctx, server, provisioning.CreateAccountRequest{
			Username:     c.Username,
			Password:     c.Password,
			Plan:         plan.Name,
			DisplayName:  c.Name,
			ContactPhone: c.Phone,
		})
		if err != nil {
			log.Warn("remote provisioning failed, creating client with entered credentials", sl.Err(err))
			s.reconcile(ctx, provisioning.OpCreate, server.ID, 0, c.Username, err.Error())
		} else {
			remoteCreated = true
			if creds.Username != "" {
				c.Username = creds.Username
			}
			if creds.Password != "" {
				c.Password = creds.Password
			}
			c.AccessURL = creds.AccessURL
		}
	}

	id, err := s.repo.SaveClient(ctx, c)
	if err != nil {
		if remoteCreated {
			log.Error("remote account created but local write failed, remote account is orphaned",
				sl.Err(err), slog.String("owner_id", actor.ID))
			s.reconcile(ctx, provisioning.OpCreate, server.ID, 0, c.Username,
				"orphaned remote account: local write failed: "+err.Error())
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Validation("referenced plan or server no longer exists")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.ID = id

	log.Info("client created", slog.Int64("client_id", id), slog.Bool("remote", remoteCreated))
	return &c, nil
}

// Update заменяет клиента целиком. Удалённый сервер не вызывается.
// Пустая дата окончания сохраняет текущую.
func (s *Service) Update(ctx context.Context, actor *models.Account, id int64, req models.DummyClient) (*models.Client, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}
	existing, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	expiration := existing.ExpirationDate
	if req.ExpirationDate != "" {
		if expiration, err = parseDate(req.ExpirationDate); err != nil {
			return nil, err
		}
	}
	if _, err := s.repo.GetPlan(ctx, req.PlanID); err != nil {
		return nil, reference("plan", req.PlanID, err)
	}
	if _, err := s.servers.Get(ctx, req.ServerID); err != nil {
		return nil, reference("server", req.ServerID, err)
	}

	c := models.Client{
		ID:             existing.ID,
		OwnerID:        existing.OwnerID,
		Name:           strings.TrimSpace(req.Name),
		Username:       strings.TrimSpace(req.Username),
		Password:       req.Password,
		Phone:          strings.TrimSpace(req.Phone),
		ServerID:       req.ServerID,
		PlanID:         req.PlanID,
		ExpirationDate: expiration,
		AccessURL:      existing.AccessURL,
	}
	if _, err := s.repo.SaveClient(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("client updated", slog.Int64("client_id", id))
	return &c, nil
}

// Delete удаляет клиента. Удалённая учётная запись не трогается.
func (s *Service) Delete(ctx context.Context, actor *models.Account, id int64) error {
	if _, err := s.visible(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.log.Info("client deleted", slog.Int64("client_id", id))
	return nil
}

// Get возвращает клиента со статусом.
func (s *Service) Get(ctx context.Context, actor *models.Account, id int64) (*models.ClientView, error) {
	c, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	v := lifecycle.View(*c, s.now())
	return &v, nil
}

// List возвращает клиентов поддерева actor (админу — всех) со статусами.
func (s *Service) List(ctx context.Context, actor *models.Account) ([]*models.ClientView, error) {
	var clients []*models.Client
	var err error
	if actor.IsAdmin() {
		clients, err = s.repo.ListAllClients(ctx)
	} else {
		var owners []string
		if owners, err = s.repo.ListSubtreeIDs(ctx, actor.ID); err != nil {
			return nil, err
		}
		clients, err = s.repo.ListClients(ctx, owners)
	}
	if err != nil {
		return nil, err
	}
	return lifecycle.Views(clients, s.now()), nil
}

func (s *Service) visible(ctx context.Context, actor *models.Account, id int64) (*models.Client, error) {
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() || c.OwnerID == actor.ID {
		return c, nil
	}
	owners, err := s.repo.ListSubtreeIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for _, owner := range owners {
		if owner == c.OwnerID {
			return c, nil
		}
	}
	return nil, ErrForeignClient
}

func (s *Service) reconcile(ctx context.Context, op string, serverID, clientID int64, username, reason string) {
	ev := models.ReconciliationEvent{
		Operation:  op,
		ServerID:   serverID,
		ClientID:   clientID,
		Username:   username,
		Reason:     reason,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishReconciliation(context.WithoutCancel(ctx), ev); err != nil {
		s.log.Error("failed to publish reconciliation event",
			slog.String("operation", op), slog.Int64("server_id", serverID), sl.Err(err))
	}
}
