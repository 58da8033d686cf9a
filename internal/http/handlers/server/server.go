// Package server реализует HTTP-обработчики реестра серверов провижининга.
// Ключ доступа сервера в ответы не попадает.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/reseller-panel/internal/http/request"
	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/services/snapshot"
)

// Service описывает операции реестра серверов.
type Service interface {
	Create(ctx context.Context, actor *models.Account, req models.DummyServer) (int64, error)
	Get(ctx context.Context, id int64) (*models.Server, error)
	List(ctx context.Context) ([]*models.Server, error)
	Delete(ctx context.Context, actor *models.Account, id int64) error
}

// Syncer выполняет мутацию и перечитывает данные инициатора.
type Syncer interface {
	Mutate(ctx context.Context, actorID string, fn snapshot.MutationFunc) (*snapshot.Result, error)
}

// Handler объединяет обработчики серверов.
type Handler struct {
	log     *slog.Logger
	service Service
	syncer  Syncer
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, syncer Syncer) *Handler {
	return &Handler{log: log, service: service, syncer: syncer}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// List godoc
// @Summary Список серверов
// @Tags Servers
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /servers [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.server.list")

	servers, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list servers", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(servers))
}

// Get godoc
// @Summary Сервер по ID
// @Tags Servers
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сервера"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /servers/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.server.get")

	id, ok := request.IntParam(w, r, log, "id")
	if !ok {
		return
	}
	srv, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get server", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"server":        srv,
		"can_provision": srv.CanProvision(),
	}))
}

// Create godoc
// @Summary Зарегистрировать сервер
// @Tags Servers
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyServer true "Сервер"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /servers [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.server.create")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	var req models.DummyServer
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		id, err := h.service.Create(ctx, actor, req)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": id}, nil
	})
	if err != nil {
		log.Error("failed to create server", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}

// Delete godoc
// @Summary Удалить сервер
// @Tags Servers
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сервера"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /servers/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.server.delete")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, log, "id")
	if !ok {
		return
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		return map[string]any{"id": id}, h.service.Delete(ctx, actor, id)
	})
	if err != nil {
		log.Error("failed to delete server", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}
