package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

const clientColumns = `id, owner_id, name, username, password, phone,
	server_id, plan_id, expiration_date, provisioning_url`

func scanClient(row rowScanner) (*models.Client, error) {
	var c models.Client
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Username, &c.Password, &c.Phone,
		&c.ServerID, &c.PlanID, &c.ExpirationDate, &c.AccessURL); err != nil {
		return nil, err
	}
	c.ExpirationDate = c.ExpirationDate.UTC()
	return &c, nil
}

func (s *Storage) queryClients(ctx context.Context, op, query string, args ...any) ([]*models.Client, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SaveClient вставляет клиента при ID == 0, иначе заменяет запись целиком.
// Ссылка на несуществующий сервер или тариф даёт ErrNotFound.
func (s *Storage) SaveClient(ctx context.Context, c models.Client) (int64, error) {
	const op = "storage.SaveClient"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	if c.ID == 0 {
		var id int64
		err := s.DB.QueryRowContext(ctx,
			`INSERT INTO clients (owner_id, name, username, password, phone,
			     server_id, plan_id, expiration_date, provisioning_url)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			c.OwnerID, c.Name, c.Username, c.Password, c.Phone,
			c.ServerID, c.PlanID, c.ExpirationDate, c.AccessURL).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrNotFound))
		}
		return id, nil
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE clients SET name = $1, username = $2, password = $3, phone = $4,
		     server_id = $5, plan_id = $6, expiration_date = $7, provisioning_url = $8,
		     updated_at = NOW()
		 WHERE id = $9`,
		c.Name, c.Username, c.Password, c.Phone,
		c.ServerID, c.PlanID, c.ExpirationDate, c.AccessURL, c.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrNotFound))
	}
	if err := affected(res, op); err != nil {
		return 0, err
	}
	return c.ID, nil
}

// GetClient возвращает клиента по ID.
func (s *Storage) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	const op = "storage.GetClient"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	c, err := scanClient(s.DB.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListClients возвращает клиентов указанных владельцев.
func (s *Storage) ListClients(ctx context.Context, ownerIDs []string) ([]*models.Client, error) {
	const op = "storage.ListClients"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	return s.queryClients(ctx, op,
		`SELECT `+clientColumns+` FROM clients WHERE owner_id = ANY($1::text[]::uuid[]) ORDER BY id`, ownerIDs)
}

// ListAllClients возвращает всех клиентов.
func (s *Storage) ListAllClients(ctx context.Context) ([]*models.Client, error) {
	const op = "storage.ListAllClients"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.queryClients(ctx, op, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
}

// ListClientsExpiringBetween возвращает клиентов с датой окончания в [from, to].
func (s *Storage) ListClientsExpiringBetween(ctx context.Context, from, to string) ([]*models.Client, error) {
	const op = "storage.ListClientsExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.queryClients(ctx, op,
		`SELECT `+clientColumns+` FROM clients
		 WHERE expiration_date BETWEEN $1::date AND $2::date ORDER BY expiration_date, id`, from, to)
}

// DeleteClient удаляет клиента.
func (s *Storage) DeleteClient(ctx context.Context, id int64) error {
	const op = "storage.DeleteClient"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}
