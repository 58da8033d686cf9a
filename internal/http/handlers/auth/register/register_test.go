package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/services/account"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Signup(ctx context.Context, req models.DummyAccount) (*models.Account, error) {
	args := m.Called(ctx, req)
	acc, _ := args.Get(0).(*models.Account)
	return acc, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := models.DummyAccount{Email: "r1@example.com", Password: "password123"}

	tests := []struct {
		name           string
		body           any
		setupMock      func(m *ServiceMock)
		wantStatusCode int
		wantStatus     string
		wantError      string
	}{
		{
			name: "valid registration",
			body: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Signup", mock.Anything, valid).Return(&models.Account{
					ID:    "acc-1",
					Email: valid.Email,
					Role:  models.RoleReseller,
				}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			body:           "not a json",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - missing password",
			body:           models.DummyAccount{Email: "r1@example.com"},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "field Password is a required field",
		},
		{
			name: "email taken",
			body: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Signup", mock.Anything, valid).Return(nil, account.ErrEmailTaken).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantError:      "email already registered",
		},
		{
			name: "storage failure",
			body: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Signup", mock.Anything, valid).Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
			wantError:      "internal service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			var bodyBytes []byte
			switch v := tt.body.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(v)
				assert.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "acc-1", data["id"])
				assert.NotContains(t, data, "password_hash")
			}
			svc.AssertExpectations(t)
		})
	}
}
