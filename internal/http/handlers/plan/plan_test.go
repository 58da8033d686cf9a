package plan

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
	planservice "github.com/magabrotheeeer/reseller-panel/internal/services/plan"
	"github.com/magabrotheeeer/reseller-panel/internal/services/snapshot"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, actor *models.Account, req models.DummyPlan) (int64, error) {
	args := m.Called(ctx, actor, req)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ServiceMock) Update(ctx context.Context, actor *models.Account, id int64, req models.DummyPlan) error {
	return m.Called(ctx, actor, id, req).Error(0)
}

func (m *ServiceMock) Delete(ctx context.Context, actor *models.Account, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *ServiceMock) Get(ctx context.Context, id int64) (*models.Plan, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Plan)
	return p, args.Error(1)
}

func (m *ServiceMock) List(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*models.Plan)
	return list, args.Error(1)
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
	r.Get("/plans", h.List)
	r.Get("/plans/{id}", h.Get)
	r.Post("/plans", h.Create)
	r.Put("/plans/{id}", h.Update)
	r.Delete("/plans/{id}", h.Delete)
	return r
}

func TestPlanHandlers(t *testing.T) {
	actor := &models.Account{ID: "r1", Role: models.RoleReseller}
	monthly := models.DummyPlan{Name: "Monthly", Price: 10, DurationValue: 1, DurationUnit: "months"}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "list",
			method: http.MethodGet,
			path:   "/plans",
			setupMock: func(m *ServiceMock) {
				m.On("List", mock.Anything).Return([]*models.Plan{{ID: 1, Name: "Monthly"}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"name":"Monthly"`,
		},
		{
			name:   "get missing",
			method: http.MethodGet,
			path:   "/plans/9",
			setupMock: func(m *ServiceMock) {
				m.On("Get", mock.Anything, int64(9)).Return(nil, storage.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/plans",
			body:   `{"name":"Monthly","price":10,"duration_value":1,"duration_unit":"months"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, actor, monthly).Return(int64(3), nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"id":3`,
		},
		{
			name:       "create with unknown unit",
			method:     http.MethodPost,
			path:       "/plans",
			body:       `{"name":"Yearly","price":10,"duration_value":1,"duration_unit":"years"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field DurationUnit must be one of: days months",
		},
		{
			name:   "update foreign plan",
			method: http.MethodPut,
			path:   "/plans/5",
			body:   `{"name":"Monthly","price":10,"duration_value":1,"duration_unit":"months"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, actor, int64(5), monthly).Return(planservice.ErrNotOwner)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "delete referenced plan",
			method: http.MethodDelete,
			path:   "/plans/5",
			setupMock: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, actor, int64(5)).Return(storage.ErrInUse)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "bad id",
			method:     http.MethodDelete,
			path:       "/plans/x",
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, &syncerStub{actor: actor})

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			svc.AssertExpectations(t)
		})
	}
}
