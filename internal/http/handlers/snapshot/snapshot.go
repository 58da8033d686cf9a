// Package snapshot отдаёт согласованное представление всех данных,
// видимых инициатору: аккаунт, аккаунты, серверы, тарифы и клиентов.
package snapshot

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/reseller-panel/internal/http/request"
	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	snapshotservice "github.com/magabrotheeeer/reseller-panel/internal/services/snapshot"
)

// Refresher собирает Snapshot.
type Refresher interface {
	Refresh(ctx context.Context, actorID string) (*snapshotservice.Snapshot, error)
}

// Handler отдаёт Snapshot текущего аккаунта.
type Handler struct {
	log       *slog.Logger
	refresher Refresher
}

// New создаёт Handler.
func New(log *slog.Logger, refresher Refresher) *Handler {
	return &Handler{log: log, refresher: refresher}
}

// ServeHTTP godoc
// @Summary Все данные инициатора
// @Tags Snapshot
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /snapshot [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.snapshot"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	snap, err := h.refresher.Refresh(r.Context(), actorID)
	if err != nil {
		log.Error("failed to refresh snapshot", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(snap))
}
