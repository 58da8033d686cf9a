// Package server — реестр серверов провижининга с кешем в Redis.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/apperr"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// ErrNotOwner — удалить сервер может только владелец или админ.
var ErrNotOwner = fmt.Errorf("%w: server belongs to another account", apperr.ErrForbidden)

// Repository описывает хранилище серверов.
type Repository interface {
	SaveServer(ctx context.Context, srv models.Server) (int64, error)
	GetServer(ctx context.Context, id int64) (*models.Server, error)
	ListServers(ctx context.Context) ([]*models.Server, error)
	DeleteServer(ctx context.Context, id int64) error
}

// Cache описывает кеш справочников.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// cachedServer сохраняет ключ доступа, который models.Server не отдаёт в JSON.
type cachedServer struct {
	models.Server
	Credential string `json:"credential"`
}

// Service управляет серверами.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт Service. ttl — время жизни записи в кеше.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("server:%d", id)
}

// Create регистрирует сервер, владельцем становится actor.
func (s *Service) Create(ctx context.Context, actor *models.Account, req models.DummyServer) (int64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return 0, apperr.Validation("server name is required")
	}
	id, err := s.repo.SaveServer(ctx, models.Server{
		OwnerID:    actor.ID,
		Name:       name,
		Endpoint:   strings.TrimSpace(req.Endpoint),
		Credential: req.Credential,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("server created", slog.Int64("id", id), slog.String("owner_id", actor.ID))
	return id, nil
}

// Get возвращает сервер, сначала пытаясь прочитать его из кеша.
// Ошибки кеша не прерывают операцию.
func (s *Service) Get(ctx context.Context, id int64) (*models.Server, error) {
	key := cacheKey(id)

	var cached cachedServer
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read server from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		srv := cached.Server
		srv.Credential = cached.Credential
		return &srv, nil
	}

	srv, err := s.repo.GetServer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, cachedServer{Server: *srv, Credential: srv.Credential}, s.ttl); err != nil {
		s.log.Warn("failed to cache server", slog.String("key", key), sl.Err(err))
	}
	return srv, nil
}

// List возвращает все серверы.
func (s *Service) List(ctx context.Context) ([]*models.Server, error) {
	return s.repo.ListServers(ctx)
}

// Delete удаляет сервер, если на него не ссылаются клиенты.
func (s *Service) Delete(ctx context.Context, actor *models.Account, id int64) error {
	srv, err := s.repo.GetServer(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && srv.OwnerID != actor.ID {
		return ErrNotOwner
	}
	if err := s.repo.DeleteServer(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate server cache", slog.Int64("id", id), sl.Err(err))
	}
	s.log.Info("server deleted", slog.Int64("id", id))
	return nil
}
