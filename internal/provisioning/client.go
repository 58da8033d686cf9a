// Package provisioning — HTTP-адаптер к внешнему API создания и продления
// учётных записей на серверах провижининга.
package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// Операции для метрик и событий сверки.
const (
	OpCreate = "create"
	OpRenew  = "renew"
)

var (
	// ErrNotConfigured — у сервера не задан адрес или ключ.
	ErrNotConfigured = errors.New("server has no provisioning configured")
	// ErrRejected — удалённый API ответил success=false.
	ErrRejected = errors.New("remote provisioning rejected the request")
)

// Client обращается к API провижининга конкретного сервера.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	metrics    *metrics.Metrics
}

// NewClient создаёт адаптер. timeout применяется к каждому вызову отдельно,
// поверх таймаута самого httpClient.
func NewClient(httpClient *http.Client, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: httpClient,
		timeout:    timeout,
		metrics:    m,
	}
}

// CreateRemoteAccount создаёт учётную запись на сервере и возвращает выданные им данные.
func (c *Client) CreateRemoteAccount(ctx context.Context, server *models.Server, req CreateAccountRequest) (creds *models.ProvisioningCredentials, err error) {
	const op = "provisioning.CreateRemoteAccount"
	started := time.Now()
	defer func() { c.metrics.ObserveProvisioning(OpCreate, started, err) }()

	if !server.CanProvision() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	var resp createAccountResponse
	if err = c.post(ctx, server, "/accounts", req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrRejected, resp.Message)
	}
	if resp.Credentials == nil {
		return nil, fmt.Errorf("%s: %w: response has no credentials", op, ErrRejected)
	}

	return &models.ProvisioningCredentials{
		Username:  resp.Credentials.Username,
		Password:  resp.Credentials.Password,
		AccessURL: resp.Credentials.AccessURL,
	}, nil
}

// RenewRemoteAccount продлевает учётную запись username на extensionDays дней.
func (c *Client) RenewRemoteAccount(ctx context.Context, server *models.Server, username string, extensionDays int) (err error) {
	const op = "provisioning.RenewRemoteAccount"
	started := time.Now()
	defer func() { c.metrics.ObserveProvisioning(OpRenew, started, err) }()

	if !server.CanProvision() {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	var resp renewAccountResponse
	path := "/accounts/" + url.PathEscape(username) + "/renew"
	if err = c.post(ctx, server, path, RenewAccountRequest{ExtensionDays: extensionDays}, &resp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.Success {
		return fmt.Errorf("%s: %w: %s", op, ErrRejected, resp.Message)
	}
	return nil
}

func (c *Client) post(ctx context.Context, server *models.Server, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	endpoint := strings.TrimRight(server.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+server.Credential)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
