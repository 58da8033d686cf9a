// Package account реализует HTTP-обработчики аккаунтов: текущий аккаунт,
// список видимых аккаунтов, создание субаккаунта и изменение баланса.
//
// Мутации выполняются через Syncer, поэтому ответ содержит перечитанные коллекции.
package account

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

// Service описывает операции над аккаунтами.
type Service interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	ListVisible(ctx context.Context, actor *models.Account) ([]*models.Account, error)
	CreateSubAccount(ctx context.Context, actorID string, req models.DummyAccount) (*models.Account, error)
}

// Ledger изменяет балансы.
type Ledger interface {
	Adjust(ctx context.Context, actorID, targetID string, amount int64) error
}

// Syncer выполняет мутацию и перечитывает данные инициатора.
type Syncer interface {
	Mutate(ctx context.Context, actorID string, fn snapshot.MutationFunc) (*snapshot.Result, error)
}

// Handler объединяет обработчики аккаунтов.
type Handler struct {
	log     *slog.Logger
	service Service
	ledger  Ledger
	syncer  Syncer
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, ledger Ledger, syncer Syncer) *Handler {
	return &Handler{
		log:     log,
		service: service,
		ledger:  ledger,
		syncer:  syncer,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Me godoc
// @Summary Текущий аккаунт
// @Tags Accounts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /accounts/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.account.me")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	acc, err := h.service.Get(r.Context(), actorID)
	if err != nil {
		log.Error("failed to get account", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(acc))
}

// List godoc
// @Summary Видимые аккаунты
// @Description Админ видит все аккаунты, реселлер только свои субаккаунты.
// @Tags Accounts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /accounts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.account.list")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	actor, err := h.service.Get(r.Context(), actorID)
	if err != nil {
		log.Error("failed to get actor", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	accounts, err := h.service.ListVisible(r.Context(), actor)
	if err != nil {
		log.Error("failed to list accounts", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(accounts))
}

// Create godoc
// @Summary Создать субаккаунт
// @Description Родителем нового аккаунта становится инициатор.
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyAccount true "Данные субаккаунта"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /accounts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.account.create")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	var req models.DummyAccount
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		return h.service.CreateSubAccount(ctx, actor.ID, req)
	})
	if err != nil {
		log.Error("failed to create sub-account", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("sub-account created")
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}

// AdjustCredits godoc
// @Summary Изменить баланс
// @Description Положительная сумма начисляет кредиты, отрицательная списывает. Реселлер платит из своего баланса.
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID аккаунта"
// @Param request body models.DummyCredits true "Сумма"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /accounts/{id}/credits [post]
func (h *Handler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.account.credits")

	actorID, ok := request.ActorID(w, r, log)
	if !ok {
		return
	}
	targetID, ok := request.UUIDParam(w, r, log, "id")
	if !ok {
		return
	}
	var req models.DummyCredits
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	res, err := h.syncer.Mutate(r.Context(), actorID, func(ctx context.Context, actor *models.Account) (any, error) {
		if err := h.ledger.Adjust(ctx, actor.ID, targetID, req.Amount); err != nil {
			return nil, err
		}
		return map[string]any{"target_id": targetID, "amount": req.Amount}, nil
	})
	if err != nil {
		log.Info("credit adjustment rejected", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("credits adjusted", slog.String("target_id", targetID), slog.Int64("amount", req.Amount))
	render.JSON(w, r, response.OKWithData(res))
}
