// Package plan реализует HTTP-обработчики каталога тарифов.
package plan

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

// Service описывает операции каталога тарифов.
type Service interface {
	Create(ctx context.Context, actor *models.Account, req models.DummyPlan) (int64, error)
	Update(ctx context.Context, actor *models.Account, id int64, req models.DummyPlan) error
	Delete(ctx context.Context, actor *models.Account, id int64) error
	Get(ctx context.Context, id int64) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)
}

// Syncer выполняет мутацию и перечитывает данные инициатора.
type Syncer interface {
	Mutate(ctx context.Context, actorID string, fn snapshot.MutationFunc) (*snapshot.Result, error)
}

// Handler объединяет обработчики тарифов.
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
// @Summary Список тарифов
// @Tags Plans
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /plans [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plan.list")

	plans, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(plans))
}

// Get godoc
// @Summary Тариф по ID
// @Tags Plans
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID тарифа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /plans/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plan.get")

	id, ok := request.IntParam(w, r, log, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		log.Error("failed to get plan", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(p))
}

// Create godoc
// @Summary Создать тариф
// @Tags Plans
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyPlan true "Тариф"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plan.create")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	var req models.DummyPlan
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
		log.Error("failed to create plan", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}

// Update godoc
// @Summary Изменить тариф
// @Description Запись заменяется целиком.
// @Tags Plans
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID тарифа"
// @Param request body models.DummyPlan true "Тариф"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /plans/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plan.update")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyPlan
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		return map[string]any{"id": id}, h.service.Update(ctx, actor, id, req)
	})
	if err != nil {
		log.Error("failed to update plan", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Delete godoc
// @Summary Удалить тариф
// @Description Тариф, на который ссылаются клиенты, удалить нельзя.
// @Tags Plans
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID тарифа"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /plans/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.plan.delete")

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
		log.Error("failed to delete plan", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}
