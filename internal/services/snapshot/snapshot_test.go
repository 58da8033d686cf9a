package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

type AccountsMock struct{ mock.Mock }

func (m *AccountsMock) Get(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *AccountsMock) ListVisible(ctx context.Context, actor *models.Account) ([]*models.Account, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]*models.Account), args.Error(1)
}

type ServersMock struct{ mock.Mock }

func (m *ServersMock) List(ctx context.Context) ([]*models.Server, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Server), args.Error(1)
}

type PlansMock struct{ mock.Mock }

func (m *PlansMock) List(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type ClientsMock struct{ mock.Mock }

func (m *ClientsMock) List(ctx context.Context, actor *models.Account) ([]*models.ClientView, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]*models.ClientView), args.Error(1)
}

type fixture struct {
	accounts *AccountsMock
	servers  *ServersMock
	plans    *PlansMock
	clients  *ClientsMock
	syncer   *Syncer
}

func newFixture() *fixture {
	f := &fixture{
		accounts: new(AccountsMock),
		servers:  new(ServersMock),
		plans:    new(PlansMock),
		clients:  new(ClientsMock),
	}
	f.syncer = New(f.accounts, f.servers, f.plans, f.clients)
	return f
}

func (f *fixture) expectLists(actor *models.Account, clientsErr error) {
	f.accounts.On("ListVisible", mock.Anything, actor).Return([]*models.Account{{ID: "child"}}, nil)
	f.servers.On("List", mock.Anything).Return([]*models.Server{{ID: 1}}, nil)
	f.plans.On("List", mock.Anything).Return([]*models.Plan{{ID: 2}}, nil)
	f.clients.On("List", mock.Anything, actor).Return([]*models.ClientView{{Status: models.StatusActive}}, clientsErr)
}

func TestSyncer_Refresh(t *testing.T) {
	f := newFixture()
	actor := &models.Account{ID: "r", Credits: 10}
	f.accounts.On("Get", mock.Anything, "r").Return(actor, nil).Once()
	f.expectLists(actor, nil)

	snap, err := f.syncer.Refresh(context.Background(), "r")
	require.NoError(t, err)
	assert.Equal(t, actor, snap.Account)
	assert.Len(t, snap.Accounts, 1)
	assert.Len(t, snap.Servers, 1)
	assert.Len(t, snap.Plans, 1)
	assert.Len(t, snap.Clients, 1)
}

func TestSyncer_Refresh_Error(t *testing.T) {
	f := newFixture()
	actor := &models.Account{ID: "r"}
	f.accounts.On("Get", mock.Anything, "r").Return(actor, nil).Once()
	f.expectLists(actor, errors.New("db down"))

	_, err := f.syncer.Refresh(context.Background(), "r")
	assert.ErrorContains(t, err, "db down")
}

func TestSyncer_Mutate_RefetchesAfterWrite(t *testing.T) {
	f := newFixture()
	before := &models.Account{ID: "r", Credits: 10}
	after := &models.Account{ID: "r", Credits: 5}
	f.accounts.On("Get", mock.Anything, "r").Return(before, nil).Once()
	f.accounts.On("Get", mock.Anything, "r").Return(after, nil).Once()
	f.expectLists(after, nil)

	var seen *models.Account
	res, err := f.syncer.Mutate(context.Background(), "r", func(_ context.Context, actor *models.Account) (any, error) {
		seen = actor
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, before, seen)
	assert.Equal(t, "done", res.Result)
	assert.Equal(t, int64(5), res.Snapshot.Account.Credits)
}

func TestSyncer_Mutate_ErrorSkipsRefetch(t *testing.T) {
	f := newFixture()
	f.accounts.On("Get", mock.Anything, "r").Return(&models.Account{ID: "r"}, nil).Once()

	wantErr := errors.New("rejected")
	_, err := f.syncer.Mutate(context.Background(), "r", func(context.Context, *models.Account) (any, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	f.servers.AssertNotCalled(t, "List", mock.Anything)
}
