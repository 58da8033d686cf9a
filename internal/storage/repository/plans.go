package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

const planColumns = `id, owner_id, name, price, duration_value, duration_unit`

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Price, &p.DurationValue, &p.DurationUnit); err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePlan вставляет тариф при ID == 0, иначе заменяет запись целиком.
func (s *Storage) SavePlan(ctx context.Context, p models.Plan) (int64, error) {
	const op = "storage.SavePlan"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	if p.ID == 0 {
		var id int64
		err := s.DB.QueryRowContext(ctx,
			`INSERT INTO plans (owner_id, name, price, duration_value, duration_unit)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			p.OwnerID, p.Name, p.Price, p.DurationValue, p.DurationUnit).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrNotFound))
		}
		return id, nil
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE plans SET name = $1, price = $2, duration_value = $3, duration_unit = $4
		 WHERE id = $5`,
		p.Name, p.Price, p.DurationValue, p.DurationUnit, p.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res, op); err != nil {
		return 0, err
	}
	return p.ID, nil
}

// GetPlan возвращает тариф по ID.
func (s *Storage) GetPlan(ctx context.Context, id int64) (*models.Plan, error) {
	const op = "storage.GetPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanPlan(s.DB.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ListPlans возвращает все тарифы.
func (s *Storage) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+planColumns+` FROM plans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeletePlan удаляет тариф. Если на него ссылаются клиенты — ErrInUse.
func (s *Storage) DeletePlan(ctx context.Context, id int64) error {
	const op = "storage.DeletePlan"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrInUse))
	}
	return affected(res, op)
}
