// Package middlewarectx содержит HTTP middleware панели: проверку JWT,
// проверку оплаты доступа и ограничение частоты запросов.
//
// JWTMiddleware проверяет токен из заголовка Authorization и кладёт
// в контекст запроса идентификатор аккаунта и его роль.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AccountID — ключ идентификатора аккаунта в контексте.
	AccountID Key = "account_id"
	// Role — ключ роли аккаунта в контексте.
	Role Key = "role"
)

// TokenParser разбирает и проверяет JWT.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// AccountIDFrom возвращает идентификатор аккаунта, положенный JWTMiddleware.
func AccountIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AccountID).(string)
	return id, ok && id != ""
}

// WithAccount кладёт идентификатор и роль аккаунта в контекст.
func WithAccount(ctx context.Context, accountID, role string) context.Context {
	ctx = context.WithValue(ctx, AccountID, accountID)
	return context.WithValue(ctx, Role, role)
}

// JWTMiddleware возвращает middleware, который проверяет JWT в заголовке Authorization.
// При невалидном токене отвечает 401 Unauthorized.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := WithAccount(r.Context(), claims.AccountID(), claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
