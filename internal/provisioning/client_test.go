package provisioning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/dnscache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

func newTestClient(timeout time.Duration) (*Client, *metrics.Metrics) {
	m := metrics.NewNoop()
	return NewClient(NewHTTPClient(timeout, nil), timeout, m), m
}

func TestCreateRemoteAccount(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   bool
		wantCreds *models.ProvisioningCredentials
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"success":true,"credentials":{"username":"srv_ivan","password":"gen","access_url":"https://tv.example.com/ivan"}}`,
			wantCreds: &models.ProvisioningCredentials{
				Username: "srv_ivan", Password: "gen", AccessURL: "https://tv.example.com/ivan",
			},
		},
		{name: "rejected", status: http.StatusOK, body: `{"success":false,"message":"quota"}`, wantErr: true},
		{name: "no credentials", status: http.StatusOK, body: `{"success":true}`, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got CreateAccountRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/accounts", r.URL.Path)
				assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, m := newTestClient(time.Second)
			creds, err := c.CreateRemoteAccount(context.Background(),
				&models.Server{ID: 1, Endpoint: srv.URL + "/", Credential: "key"},
				CreateAccountRequest{Username: "ivan", Password: "pw", Plan: "monthly", DisplayName: "Ivan", ContactPhone: "+7"})

			assert.Equal(t, "ivan", got.Username)
			assert.Equal(t, "monthly", got.Plan)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, creds)
				assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisioningCalls.WithLabelValues(OpCreate, metrics.ResultError)))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreds, creds)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvisioningCalls.WithLabelValues(OpCreate, metrics.ResultOK)))
		})
	}
}

func TestCreateRemoteAccount_NotConfigured(t *testing.T) {
	c, _ := newTestClient(time.Second)
	_, err := c.CreateRemoteAccount(context.Background(), &models.Server{Endpoint: "http://x"}, CreateAccountRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateRemoteAccount_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := newTestClient(50 * time.Millisecond)
	_, err := c.CreateRemoteAccount(context.Background(),
		&models.Server{Endpoint: srv.URL, Credential: "key"}, CreateAccountRequest{Username: "u"})
	assert.Error(t, err)
}

func TestRenewRemoteAccount(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "success", body: `{"success":true}`},
		{name: "rejected", body: `{"success":false,"message":"unknown user"}`, wantErr: ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/accounts/ivan%20k/renew", r.URL.EscapedPath())
				var req RenewAccountRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, 30, req.ExtensionDays)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := newTestClient(time.Second)
			err := c.RenewRemoteAccount(context.Background(),
				&models.Server{Endpoint: srv.URL, Credential: "key"}, "ivan k", 30)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewHTTPClient_WithResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	httpClient := NewHTTPClient(time.Second, &dnscache.Resolver{})
	c := NewClient(httpClient, time.Second, metrics.NewNoop())
	endpoint := strings.Replace(srv.URL, "127.0.0.1", "localhost", 1)
	err := c.RenewRemoteAccount(context.Background(),
		&models.Server{Endpoint: endpoint, Credential: "key"}, "ivan", 1)
	assert.NoError(t, err)
}
