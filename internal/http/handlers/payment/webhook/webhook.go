// Package webhook принимает платёжные события от внешнего провайдера.
//
// Тело запроса подписывается HMAC-SHA256 общим секретом, подпись в base64
// передаётся в заголовке X-Api-Signature. Событие переключает флаг подписки аккаунта.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// SignatureHeader — заголовок с подписью тела.
const SignatureHeader = "X-Api-Signature"

const maxBodyBytes = 64 << 10

// Service применяет платёжное событие.
type Service interface {
	ApplyPaymentEvent(ctx context.Context, ev models.PaymentEvent) error
}

// Handler обрабатывает входящие платёжные события.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// New создаёт Handler. При пустом секрете все запросы отклоняются.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Sign возвращает подпись тела для заголовка SignatureHeader.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(h.webhookSecret, body)), []byte(signature))
}

// ServeHTTP godoc
// @Summary Платёжное событие
// @Description Переключает флаг подписки аккаунта. Требует подписи X-Api-Signature.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Api-Signature header string true "base64(HMAC-SHA256(body))"
// @Param request body models.PaymentEvent true "Событие"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer r.Body.Close()

	if !h.verifySignature(body, r.Header.Get(SignatureHeader)) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var ev models.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.service.ApplyPaymentEvent(r.Context(), ev); err != nil {
		log.Error("failed to apply payment event", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("payment event processed", slog.String("status", string(ev.Status)))
	render.JSON(w, r, response.OKWithData(map[string]any{"status": ev.Status}))
}
