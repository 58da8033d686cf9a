// Package snapshot — слой синхронизации: после каждой мутации заново читает
// все коллекции, которые видит инициатор, чтобы ответ отражал состояние хранилища.
package snapshot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// Snapshot — согласованное представление данных инициатора.
type Snapshot struct {
	Account  *models.Account      `json:"account"`
	Accounts []*models.Account    `json:"accounts"`
	Servers  []*models.Server     `json:"servers"`
	Plans    []*models.Plan       `json:"plans"`
	Clients  []*models.ClientView `json:"clients"`
}

// Result — итог мутации вместе с перечитанными коллекциями.
type Result struct {
	Result   any       `json:"result,omitempty"`
	Snapshot *Snapshot `json:"snapshot"`
}

// Accounts читает аккаунты.
type Accounts interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	ListVisible(ctx context.Context, actor *models.Account) ([]*models.Account, error)
}

// Servers читает реестр серверов.
type Servers interface {
	List(ctx context.Context) ([]*models.Server, error)
}

// Plans читает каталог тарифов.
type Plans interface {
	List(ctx context.Context) ([]*models.Plan, error)
}

// Clients читает клиентов со статусами.
type Clients interface {
	List(ctx context.Context, actor *models.Account) ([]*models.ClientView, error)
}

// MutationFunc выполняет изменение от имени actor и возвращает его результат.
type MutationFunc func(ctx context.Context, actor *models.Account) (any, error)

// Syncer собирает Snapshot.
type Syncer struct {
	accounts Accounts
	servers  Servers
	plans    Plans
	clients  Clients
}

// New создаёт Syncer.
func New(accounts Accounts, servers Servers, plans Plans, clients Clients) *Syncer {
	return &Syncer{
		accounts: accounts,
		servers:  servers,
		plans:    plans,
		clients:  clients,
	}
}

// Refresh заново читает аккаунт инициатора и все видимые ему коллекции.
// Коллекции читаются параллельно, первая ошибка отменяет остальные чтения.
func (s *Syncer) Refresh(ctx context.Context, actorID string) (*Snapshot, error) {
	const op = "snapshot.Refresh"

	actor, err := s.accounts.Get(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	snap := &Snapshot{Account: actor}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Accounts, err = s.accounts.ListVisible(gctx, actor)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Servers, err = s.servers.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Plans, err = s.plans.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Clients, err = s.clients.List(gctx, actor)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}

// Mutate читает актуальный аккаунт инициатора, выполняет fn и возвращает
// её результат вместе с перечитанным Snapshot. Ошибка fn возвращается как есть,
// без перечитывания.
func (s *Syncer) Mutate(ctx context.Context, actorID string, fn MutationFunc) (*Result, error) {
	actor, err := s.accounts.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	res, err := fn(ctx, actor)
	if err != nil {
		return nil, err
	}
	snap, err := s.Refresh(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &Result{Result: res, Snapshot: snap}, nil
}
