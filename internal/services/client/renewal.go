package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/lifecycle"
	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/provisioning"
)

// Метки результата удалённого продления.
const (
	remoteRenewed = "renewed"
	remoteFailed  = "failed"
	remoteSkipped = "skipped"
)

// Renew продлевает подписку клиента.
//
// Явная дата используется как есть. Иначе новая дата считается по тарифу
// (req.PlanID, если задан, либо текущему) от более поздней из дат: сегодня
// или текущее окончание. Заданный req.PlanID становится тарифом клиента.
//
// Если на сервере клиента настроен провижининг, удалённая учётная запись
// продлевается на фиксированное окно extensionDays, не зависящее от тарифа.
// Сбой удалённого продления попадает в RenewResult.RemoteError и не мешает
// локальному обновлению.
func (s *Service) Renew(ctx context.Context, actor *models.Account, id int64, req models.DummyRenew) (*models.RenewResult, error) {
	const op = "client.Renew"

	var manual time.Time
	if req.ExpirationDate != "" {
		var err error
		if manual, err = parseDate(req.ExpirationDate); err != nil {
			return nil, err
		}
	}

	c, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	planID := c.PlanID
	if req.PlanID != nil {
		planID = *req.PlanID
	}

	next := manual
	if manual.IsZero() || req.PlanID != nil {
		plan, err := s.repo.GetPlan(ctx, planID)
		if err != nil {
			return nil, reference("plan", planID, err)
		}
		if manual.IsZero() {
			if next, err = lifecycle.NextExpiration(*plan, c.ExpirationDate, s.now()); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	server, err := s.servers.Get(ctx, c.ServerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(sl.Op(op), slog.Int64("client_id", c.ID), slog.Int64("server_id", server.ID))
	result := &models.RenewResult{ClientID: c.ID, PlanID: planID, ExpirationDate: next}

	remote := remoteSkipped
	if server.CanProvision() {
		if err := s.provisioner.RenewRemoteAccount(ctx, server, c.Username, s.extensionDays); err != nil {
			remote = remoteFailed
			result.RemoteError = err.Error()
			log.Warn("remote renewal failed, renewing locally only", sl.Err(err))
			s.reconcile(ctx, provisioning.OpRenew, server.ID, c.ID, c.Username, err.Error())
		} else {
			remote = remoteRenewed
			result.RemoteRenewed = true
		}
	}

	c.ExpirationDate = next
	c.PlanID = planID
	if _, err := s.repo.SaveClient(ctx, *c); err != nil {
		if result.RemoteRenewed {
			log.Error("remote account renewed but local write failed", sl.Err(err))
			s.reconcile(ctx, provisioning.OpRenew, server.ID, c.ID, c.Username,
				"remote renewed but local write failed: "+err.Error())
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.ClientRenewals.WithLabelValues(remote).Inc()
	log.Info("client renewed",
		slog.String("expiration_date", next.Format(models.DateLayout)),
		slog.Int64("plan_id", planID),
		slog.String("remote", remote))
	return result, nil
}
