package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

// SaveServer вставляет сервер при ID == 0, иначе заменяет запись целиком.
func (s *Storage) SaveServer(ctx context.Context, srv models.Server) (int64, error) {
	const op = "storage.SaveServer"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	if srv.ID == 0 {
		var id int64
		err := s.DB.QueryRowContext(ctx,
			`INSERT INTO servers (owner_id, name, endpoint, credential)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			srv.OwnerID, srv.Name, srv.Endpoint, srv.Credential).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrNotFound))
		}
		return id, nil
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE servers SET name = $1, endpoint = $2, credential = $3 WHERE id = $4`,
		srv.Name, srv.Endpoint, srv.Credential, srv.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := affected(res, op); err != nil {
		return 0, err
	}
	return srv.ID, nil
}

// GetServer возвращает сервер по ID.
func (s *Storage) GetServer(ctx context.Context, id int64) (*models.Server, error) {
	const op = "storage.GetServer"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var srv models.Server
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, owner_id, name, endpoint, credential FROM servers WHERE id = $1`, id).
		Scan(&srv.ID, &srv.OwnerID, &srv.Name, &srv.Endpoint, &srv.Credential)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &srv, nil
}

// ListServers возвращает все серверы.
func (s *Storage) ListServers(ctx context.Context) ([]*models.Server, error) {
	const op = "storage.ListServers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, owner_id, name, endpoint, credential FROM servers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Server
	for rows.Next() {
		var srv models.Server
		if err := rows.Scan(&srv.ID, &srv.OwnerID, &srv.Name, &srv.Endpoint, &srv.Credential); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &srv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteServer удаляет сервер. Если на него ссылаются клиенты — ErrInUse.
func (s *Storage) DeleteServer(ctx context.Context, id int64) error {
	const op = "storage.DeleteServer"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrInUse))
	}
	return affected(res, op)
}
