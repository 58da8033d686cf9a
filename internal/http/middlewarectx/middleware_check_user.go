package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/reseller-panel/internal/http/response"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
)

// AccountSource читает аккаунт по идентификатору.
type AccountSource interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// SubscriptionStatusMiddleware отказывает в доступе реселлерам с неоплаченной подпиской.
// Администраторы проходят всегда.
func SubscriptionStatusMiddleware(log *slog.Logger, accounts AccountSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, ok := AccountIDFrom(r.Context())
			if !ok {
				log.Error("account identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("account identification missing"))
				return
			}

			account, err := accounts.Get(r.Context(), accountID)
			if err != nil {
				log.Error("failed to get account", sl.Err(err), slog.String("account_id", accountID))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("account not available"))
				return
			}

			if !account.IsAdmin() && account.SubscriptionStatus == models.SubscriptionExpired {
				log.Info("subscription expired, access denied", slog.String("account_id", accountID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("subscription expired, access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
