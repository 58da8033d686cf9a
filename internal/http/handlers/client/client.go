// Package client реализует HTTP-обработчики клиентских подписок: создание,
// изменение, удаление, чтение со статусом, продление и выгрузку в XLSX.
package client

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/reseller-panel/internal/export"
	"github.com/magabrotheeeer/reseller-panel/internal/http/request"
	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/services/snapshot"
)

// Service описывает операции над клиентами.
type Service interface {
	Create(ctx context.Context, actor *models.Account, req models.DummyClient) (*models.Client, error)
	Update(ctx context.Context, actor *models.Account, id int64, req models.DummyClient) (*models.Client, error)
	Delete(ctx context.Context, actor *models.Account, id int64) error
	Get(ctx context.Context, actor *models.Account, id int64) (*models.ClientView, error)
	List(ctx context.Context, actor *models.Account) ([]*models.ClientView, error)
	Renew(ctx context.Context, actor *models.Account, id int64, req models.DummyRenew) (*models.RenewResult, error)
}

// Accounts читает аккаунт инициатора для операций чтения.
type Accounts interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// Syncer выполняет мутации и собирает согласованное представление данных.
type Syncer interface {
	Refresh(ctx context.Context, actorID string) (*snapshot.Snapshot, error)
	Mutate(ctx context.Context, actorID string, fn snapshot.MutationFunc) (*snapshot.Result, error)
}

// Handler объединяет обработчики клиентов.
type Handler struct {
	log      *slog.Logger
	service  Service
	accounts Accounts
	syncer   Syncer
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, accounts Accounts, syncer Syncer) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		accounts: accounts,
		syncer:   syncer,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*models.Account, bool) {
	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return nil, false
	}
	actor, err := h.accounts.Get(r.Context(), actorID)
	if err != nil {
		log.Error("failed to get actor", sl.Err(err))
		response.Fail(w, r, err)
		return nil, false
	}
	return actor, true
}

// List godoc
// @Summary Клиенты со статусами
// @Description Админ видит всех клиентов, реселлер клиентов своего поддерева.
// @Tags Clients
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /clients [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.client.list")

	actor, ok := h.actor(w, r, log)
	if !ok {
		return
	}
	clients, err := h.service.List(r.Context(), actor)
	if err != nil {
		log.Error("failed to list clients", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(clients))
}

// Get godoc
// @Summary Клиент по ID
// @Tags Clients
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID клиента"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /clients/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.client.get")

	id, ok := request.IntParam(w, r, log, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(w, r, log)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		log.Error("failed to get client", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(view))
}

// Create godoc
// @Summary Создать клиента
// @Description Если на сервере настроен провижининг, создаётся удалённая учётная запись. Её сбой не отменяет создание.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyClient true "Клиент"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /clients [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.client.create")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	var req models.DummyClient
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		return h.service.Create(ctx, actor, req)
	})
	if err != nil {
		log.Error("failed to create client", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}

// Update godoc
// @Summary Изменить клиента
// @Description Запись заменяется целиком, удалённый сервер не вызывается. Пустая дата сохраняет текущую.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID клиента"
// @Param request body models.DummyClient true "Клиент"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /clients/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.client.update")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyClient
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		return h.service.Update(ctx, actor, id, req)
	})
	if err != nil {
		log.Error("failed to update client", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Delete godoc
// @Summary Удалить клиента
// @Description Удалённая учётная запись не удаляется.
// @Tags Clients
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID клиента"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /clients/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.client.delete")

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
		log.Error("failed to delete client", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Renew godoc
// @Summary Продлить клиента
// @Description Без тела дата сдвигается на длительность текущего тарифа от более поздней из двух дат: сегодня или текущая дата окончания. Явная дата применяется как есть.
// @Tags Clients
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID клиента"
// @Param request body models.DummyRenew false "Новый тариф или дата"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /clients/{id}/renew [post]
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.client.renew")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	id, ok := request.IntParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyRenew
	if r.ContentLength != 0 {
		if !request.DecodeValid(w, r, log, &req) {
			return
		}
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		return h.service.Renew(ctx, actor, id, req)
	})
	if err != nil {
		log.Error("failed to renew client", sl.Err(err), slog.Int64("id", id))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Export godoc
// @Summary Выгрузить клиентов в XLSX
// @Tags Clients
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file
// @Router /clients/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.client.export")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	snap, err := h.syncer.Refresh(r.Context(), actorID)
	if err != nil {
		log.Error("failed to load clients", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	serverNames := make(map[int64]string, len(snap.Servers))
	for _, s := range snap.Servers {
		serverNames[s.ID] = s.Name
	}
	planNames := make(map[int64]string, len(snap.Plans))
	for _, p := range snap.Plans {
		planNames[p.ID] = p.Name
	}

	var buf bytes.Buffer
	if err := export.WriteClients(&buf, snap.Clients, serverNames, planNames); err != nil {
		log.Error("failed to build workbook", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "clients.xlsx"))
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error("failed to write workbook", sl.Err(err))
		return
	}
	log.Info("clients exported", slog.Int("count", len(snap.Clients)))
}
