// Package register реализует HTTP-обработчик самостоятельной регистрации реселлера.
//
// Новый аккаунт всегда получает роль reseller, нулевой баланс и не имеет родителя.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/reseller-panel/internal/http/request"
	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

// Handler обрабатывает запросы регистрации.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает регистрацию аккаунта.
type Service interface {
	Signup(ctx context.Context, req models.DummyAccount) (*models.Account, error)
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Регистрация реселлера
// @Description Создаёт аккаунт реселлера с нулевым балансом.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyAccount true "Email и пароль"
// @Success 201 {object} response.Response "Аккаунт создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /signup [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyAccount
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	account, err := h.service.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, storage.ErrExists) {
			log.Info("email already registered")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("email already registered"))
			return
		}
		log.Error("failed to register account", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("account registered", slog.String("account_id", account.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(account))
}
