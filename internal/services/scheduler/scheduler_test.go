package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

type MockRepository struct{ mock.Mock }

func (m *MockRepository) ListClientsExpiringBetween(ctx context.Context, from, to string) ([]*models.Client, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) PublishExpiryNotice(ctx context.Context, n models.ExpiryNotice) error {
	return m.Called(ctx, n).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestService_NotifyNearExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	clients := []*models.Client{
		{ID: 1, ExpirationDate: day(2024, 12, 31)}, // expired
		{ID: 2, ExpirationDate: day(2025, 1, 2)},   // near
		{ID: 3, ExpirationDate: day(2025, 1, 6)},   // near, ceil(4.6) = 5
		{ID: 4, ExpirationDate: day(2025, 1, 7)},   // active
		{ID: 5, ExpirationDate: day(2025, 1, 3)},   // near, publish fails
	}

	repo := new(MockRepository)
	repo.On("ListClientsExpiringBetween", mock.Anything, "2024-12-31", "2025-01-07").Return(clients, nil).Once()

	pub := new(MockPublisher)
	pub.On("PublishExpiryNotice", mock.Anything, mock.MatchedBy(func(n models.ExpiryNotice) bool {
		return (n.ClientID == 2 || n.ClientID == 3) && n.Status == models.StatusNearExpiry
	})).Return(nil).Twice()
	pub.On("PublishExpiryNotice", mock.Anything, mock.MatchedBy(func(n models.ExpiryNotice) bool {
		return n.ClientID == 5
	})).Return(errors.New("broker down")).Once()

	m := metrics.NewNoop()
	svc := NewService(repo, pub, newNoopLogger(), m).WithClock(func() time.Time { return now })

	sent, err := svc.NotifyNearExpiry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExpiryNotices))
	pub.AssertExpectations(t)
}

func TestService_NotifyNearExpiry_RepoError(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListClientsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	svc := NewService(repo, new(MockPublisher), newNoopLogger(), metrics.NewNoop())
	_, err := svc.NotifyNearExpiry(context.Background())
	assert.Error(t, err)
}

func TestService_Run(t *testing.T) {
	svc := NewService(new(MockRepository), new(MockPublisher), newNoopLogger(), metrics.NewNoop())

	assert.Error(t, svc.Run(context.Background(), "not a cron"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, "0 9 * * *") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
