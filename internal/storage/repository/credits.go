package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

// AdjustCredits атомарно применяет изменение баланса.
//
// Строки аккаунтов блокируются в порядке ID (SELECT ... FOR UPDATE), поэтому
// параллельные переводы между одними и теми же аккаунтами не взаимоблокируются
// и не теряют обновления. При adj.Transfer баланс инициатора меняется на -Amount
// в той же транзакции. Баланс получателя не может стать отрицательным
// (ErrNegativeBalance), баланс инициатора — тоже (ErrInsufficientCredits).
func (s *Storage) AdjustCredits(ctx context.Context, adj models.CreditAdjustment) error {
	const op = "storage.AdjustCredits"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ids := []string{adj.TargetID}
	if adj.Transfer {
		ids = append(ids, adj.ActorID)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, credits FROM accounts WHERE id = ANY($1::text[]::uuid[]) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	balances := make(map[string]int64, len(ids))
	for rows.Next() {
		var id string
		var credits int64
		if err := rows.Scan(&id, &credits); err != nil {
			_ = rows.Close()
			return fmt.Errorf("%s: %w", op, err)
		}
		balances[id] = credits
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	_ = rows.Close()

	target, ok := balances[adj.TargetID]
	if !ok {
		return fmt.Errorf("%s: target %s: %w", op, adj.TargetID, storage.ErrNotFound)
	}
	if target+adj.Amount < 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNegativeBalance)
	}

	if adj.Transfer {
		actor, ok := balances[adj.ActorID]
		if !ok {
			return fmt.Errorf("%s: actor %s: %w", op, adj.ActorID, storage.ErrNotFound)
		}
		if actor-adj.Amount < 0 {
			return fmt.Errorf("%s: %w", op, storage.ErrInsufficientCredits)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET credits = credits - $1 WHERE id = $2`, adj.Amount, adj.ActorID); err != nil {
			return fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrNotFound))
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET credits = credits + $1 WHERE id = $2`, adj.Amount, adj.TargetID); err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrNotFound))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
