// Package login реализует HTTP-обработчик входа в панель.
//
// Handler проверяет email и пароль через сервис аккаунтов и возвращает JWT
// вместе с данными аккаунта.
package login

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
	"github.com/magabrotheeeer/reseller-panel/internal/services/account"
)

// Handler обрабатывает HTTP-запросы авторизации.
type Handler struct {
	log     *slog.Logger // Логгер для записи операций и ошибок
	service Service
}

// Service описывает вход по email и паролю.
type Service interface {
	Login(ctx context.Context, email, password string) (string, *models.Account, error)
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Авторизация
// @Description Проверяет email и пароль, возвращает JWT и аккаунт.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.DummyLogin true "Учётные данные"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyLogin
	if !request.DecodeValid(w, r, log, &req) {
		return
	}

	token, acc, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			log.Info("invalid credentials")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))
			return
		}
		log.Error("login failed", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("login success", slog.String("account_id", acc.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token":   token,
		"account": acc,
	}))
}
