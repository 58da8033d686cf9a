// Package request содержит общие шаги разбора HTTP-запроса: декодирование
// и валидацию тела, чтение параметров пути и идентификатора инициатора.
// Каждая функция при ошибке сама пишет ответ и возвращает false.
package request

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/reseller-panel/internal/http/middlewarectx"
	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
)

var validate = validator.New()

// DecodeValid читает JSON-тело в dst и проверяет его тегами validate.
func DecodeValid(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		log.Error("validation failed", sl.Err(err))
		verrs, ok := err.(validator.ValidationErrors)
		w.WriteHeader(http.StatusUnprocessableEntity)
		if !ok {
			render.JSON(w, r, response.Error("invalid request body"))
			return false
		}
		render.JSON(w, r, response.ValidationError(verrs))
		return false
	}
	return true
}

// IntParam читает положительный числовой параметр пути.
func IntParam(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		log.Error("invalid path parameter", slog.String(name, raw))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid "+name))
		return 0, false
	}
	return id, true
}

// UUIDParam читает параметр пути в формате UUID.
func UUIDParam(w http.ResponseWriter, r *http.Request, log *slog.Logger, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		log.Error("invalid path parameter", slog.String(name, raw), sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid "+name))
		return "", false
	}
	return id.String(), true
}

// ActorID возвращает идентификатор аутентифицированного аккаунта.
func ActorID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	id, ok := middlewarectx.AccountIDFrom(r.Context())
	if !ok {
		log.Error("account id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return "", false
	}
	return id, true
}
