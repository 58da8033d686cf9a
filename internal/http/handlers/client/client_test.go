package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/magabrotheeeer/reseller-panel/internal/export"
	"github.com/magabrotheeeer/reseller-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	clientservice "github.com/magabrotheeeer/reseller-panel/internal/services/client"
	"github.com/magabrotheeeer/reseller-panel/internal/services/snapshot"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Create(ctx context.Context, actor *models.Account, req models.DummyClient) (*models.Client, error) {
	args := m.Called(ctx, actor, req)
	c, _ := args.Get(0).(*models.Client)
	return c, args.Error(1)
}

func (m *ServiceMock) Update(ctx context.Context, actor *models.Account, id int64, req models.DummyClient) (*models.Client, error) {
	args := m.Called(ctx, actor, id, req)
	c, _ := args.Get(0).(*models.Client)
	return c, args.Error(1)
}

func (m *ServiceMock) Delete(ctx context.Context, actor *models.Account, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *ServiceMock) Get(ctx context.Context, actor *models.Account, id int64) (*models.ClientView, error) {
	args := m.Called(ctx, actor, id)
	v, _ := args.Get(0).(*models.ClientView)
	return v, args.Error(1)
}

func (m *ServiceMock) List(ctx context.Context, actor *models.Account) ([]*models.ClientView, error) {
	args := m.Called(ctx, actor)
	list, _ := args.Get(0).([]*models.ClientView)
	return list, args.Error(1)
}

func (m *ServiceMock) Renew(ctx context.Context, actor *models.Account, id int64, req models.DummyRenew) (*models.RenewResult, error) {
	args := m.Called(ctx, actor, id, req)
	res, _ := args.Get(0).(*models.RenewResult)
	return res, args.Error(1)
}

type accountsStub struct {
	actor *models.Account
}

func (a *accountsStub) Get(_ context.Context, id string) (*models.Account, error) {
	if a.actor == nil || a.actor.ID != id {
		return nil, storage.ErrNotFound
	}
	return a.actor, nil
}

type syncerStub struct {
	actor *models.Account
	snap  *snapshot.Snapshot
}

func (s *syncerStub) Refresh(_ context.Context, _ string) (*snapshot.Snapshot, error) {
	return s.snap, nil
}

func (s *syncerStub) Mutate(ctx context.Context, _ string, fn snapshot.MutationFunc) (*snapshot.Result, error) {
	res, err := fn(ctx, s.actor)
	if err != nil {
		return nil, err
	}
	return &snapshot.Result{Result: res, Snapshot: s.snap}, nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRouter(h *Handler, actorID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middlewarectx.WithAccount(req.Context(), actorID, "reseller")))
		})
	})
	r.Get("/clients", h.List)
	r.Get("/clients/export", h.Export)
	r.Get("/clients/{id}", h.Get)
	r.Post("/clients", h.Create)
	r.Put("/clients/{id}", h.Update)
	r.Delete("/clients/{id}", h.Delete)
	r.Post("/clients/{id}/renew", h.Renew)
	return r
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClientHandlers(t *testing.T) {
	actor := &models.Account{ID: "r1", Role: models.RoleReseller}
	planID := int64(2)
	input := models.DummyClient{Name: "Ivan", Username: "ivan", Password: "pw", ServerID: 1, PlanID: 2}

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
			name:   "create",
			method: http.MethodPost,
			path:   "/clients",
			body:   `{"name":"Ivan","username":"ivan","password":"pw","server_id":1,"plan_id":2}`,
			setupMock: func(m *ServiceMock) {
				m.On("Create", mock.Anything, actor, input).Return(&models.Client{
					ID: 10, OwnerID: "r1", Name: "Ivan", Username: "remote-ivan", AccessURL: "https://x/ivan",
				}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"username":"remote-ivan"`,
		},
		{
			name:       "create without plan",
			method:     http.MethodPost,
			path:       "/clients",
			body:       `{"name":"Ivan","username":"ivan","password":"pw","server_id":1}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field PlanID is a required field",
		},
		{
			name:   "get foreign client",
			method: http.MethodGet,
			path:   "/clients/10",
			setupMock: func(m *ServiceMock) {
				m.On("Get", mock.Anything, actor, int64(10)).Return(nil, clientservice.ErrForeignClient)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "list with statuses",
			method: http.MethodGet,
			path:   "/clients",
			setupMock: func(m *ServiceMock) {
				m.On("List", mock.Anything, actor).Return([]*models.ClientView{
					{Client: models.Client{ID: 1, Name: "Ivan"}, Status: models.StatusNearExpiry},
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"status":"near_expiry"`,
		},
		{
			name:   "renew without body",
			method: http.MethodPost,
			path:   "/clients/10/renew",
			setupMock: func(m *ServiceMock) {
				m.On("Renew", mock.Anything, actor, int64(10), models.DummyRenew{}).Return(&models.RenewResult{
					ClientID: 10, ExpirationDate: date(2024, 7, 1), PlanID: 2, RemoteRenewed: true,
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"remote_renewed":true`,
		},
		{
			name:   "renew with plan override",
			method: http.MethodPost,
			path:   "/clients/10/renew",
			body:   `{"plan_id":2}`,
			setupMock: func(m *ServiceMock) {
				m.On("Renew", mock.Anything, actor, int64(10), models.DummyRenew{PlanID: &planID}).Return(&models.RenewResult{
					ClientID: 10, ExpirationDate: date(2024, 7, 1), PlanID: 2, RemoteError: "timeout",
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"remote_error":"timeout"`,
		},
		{
			name:   "delete missing",
			method: http.MethodDelete,
			path:   "/clients/77",
			setupMock: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, actor, int64(77)).Return(storage.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc, &accountsStub{actor: actor}, &syncerStub{actor: actor, snap: &snapshot.Snapshot{Account: actor}})

			var body io.Reader
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			}
			rec := httptest.NewRecorder()
			newRouter(h, "r1").ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestClientHandlers_UnknownActor(t *testing.T) {
	h := New(newNoopLogger(), new(ServiceMock), &accountsStub{}, &syncerStub{})

	rec := httptest.NewRecorder()
	newRouter(h, "ghost").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	actor := &models.Account{ID: "r1", Role: models.RoleReseller}
	snap := &snapshot.Snapshot{
		Account: actor,
		Servers: []*models.Server{{ID: 1, Name: "eu-1"}},
		Plans:   []*models.Plan{{ID: 2, Name: "Monthly"}},
		Clients: []*models.ClientView{
			{Client: models.Client{ID: 5, Name: "Ivan", ServerID: 1, PlanID: 2, ExpirationDate: date(2024, 6, 1)}, Status: models.StatusActive},
		},
	}
	h := New(newNoopLogger(), new(ServiceMock), &accountsStub{actor: actor}, &syncerStub{actor: actor, snap: snap})

	rec := httptest.NewRecorder()
	newRouter(h, "r1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clients/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Contains(t, rows[1], "Ivan")
	assert.Contains(t, rows[1], "eu-1")
	assert.Contains(t, rows[1], "Monthly")
}

func TestCreateResponseCarriesSnapshot(t *testing.T) {
	actor := &models.Account{ID: "r1", Role: models.RoleReseller, Credits: 3}
	svc := new(ServiceMock)
	svc.On("Create", mock.Anything, actor, mock.Anything).Return(&models.Client{ID: 1}, nil)
	snap := &snapshot.Snapshot{Account: actor, Clients: []*models.ClientView{{Client: models.Client{ID: 1}}}}
	h := New(newNoopLogger(), svc, &accountsStub{actor: actor}, &syncerStub{actor: actor, snap: snap})

	rec := httptest.NewRecorder()
	body := `{"name":"Ivan","username":"ivan","password":"pw","server_id":1,"plan_id":2}`
	newRouter(h, "r1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clients", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got struct {
		Data snapshot.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.Data.Snapshot)
	assert.Len(t, got.Data.Snapshot.Clients, 1)
	assert.Equal(t, int64(3), got.Data.Snapshot.Account.Credits)
}
