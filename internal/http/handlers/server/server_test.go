package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/reseller-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	serverservice "github.com/magabrotheeeer/reseller-panel/internal/services/server"
	"github.com/magabrotheeeer/reseller-panel/internal/services/snapshot"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, actor *models.Account, req models.DummyServer) (int64, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ServiceMock) Get(ctx context.Context, id int64) (*models.Server, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Server)
	return s, args.Error(1)
}

func (m *ServiceMock) List(ctx context.Context) ([]*models.Server, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*models.Server)
	return list, args.Error(1)
}

func (m *ServiceMock) Delete(ctx context.Context, actor *models.Account, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

type syncerStub struct {
	actor *models.Account
}

func (s *syncerStub) Mutate(ctx context.Context, _ string, fn snapshot.MutationFunc) (*snapshot.Result, error) {
	res, err := fn(ctx, s.actor)
	if err != nil {
		return nil, err
	}
	return &snapshot.Result{Result: res, Snapshot: &snapshot.Snapshot{Account: s.actor}}, nil
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middlewarectx.WithAccount(req.Context(), "r1", "reseller")))
		})
	})
	r.Get("/servers", h.List)
	r.Get("/servers/{id}", h.Get)
	r.Post("/servers", h.Create)
	r.Delete("/servers/{id}", h.Delete)
	return r
}

func TestServerHandlers(t *testing.T) {
	actor := &models.Account{ID: "r1", Role: models.RoleReseller}

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		setupMock   func(m *ServiceMock)
		wantStatus  int
		wantBody    string
		wantMissing string
	}{
		{
			name:   "get hides credential",
			method: http.MethodGet,
			path:   "/servers/1",
			setupMock: func(m *ServiceMock) {
				m.On("Get", mock.Anything, int64(1)).Return(&models.Server{
					ID: 1, Name: "eu-1", Endpoint: "https://eu-1.example.com", Credential: "top-secret",
				}, nil)
			},
			wantStatus:  http.StatusOK,
			wantBody:    `"can_provision":true`,
			wantMissing: "top-secret",
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/servers",
			body:   `{"name":"eu-1","endpoint":"https://eu-1.example.com","credential":"k"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, actor, models.DummyServer{
					Name: "eu-1", Endpoint: "https://eu-1.example.com", Credential: "k",
				}).Return(int64(7), nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"id":7`,
		},
		{
			name:       "create with bad endpoint",
			method:     http.MethodPost,
			path:       "/servers",
			body:       `{"name":"eu-1","endpoint":"not a url"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "delete foreign server",
			method: http.MethodDelete,
			path:   "/servers/2",
			setupMock: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, actor, int64(2)).Return(serverservice.ErrNotOwner)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "list",
			method: http.MethodGet,
			path:   "/servers",
			setupMock: func(m *ServiceMock) {
				m.On("List", mock.Anything).Return([]*models.Server{{ID: 1, Name: "eu-1"}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"name":"eu-1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, &syncerStub{actor: actor})

			rec := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantMissing != "" {
				assert.NotContains(t, rec.Body.String(), tt.wantMissing)
			}
			svc.AssertExpectations(t)
		})
	}
}
