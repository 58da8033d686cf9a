package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/reseller-panel/internal/models"
	"github.com/magabrotheeeer/reseller-panel/internal/storage"
)

const accountColumns = `id, email, password_hash, role, credits, parent_id,
	subscription_status, external_customer_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var parentID, customerID sql.NullString
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.Credits, &parentID,
		&a.SubscriptionStatus, &customerID, &a.CreatedAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		a.ParentID = &parentID.String
	}
	if customerID.Valid {
		a.ExternalCustomerID = &customerID.String
	}
	return &a, nil
}

func (s *Storage) queryAccounts(ctx context.Context, op, query string, args ...any) ([]*models.Account, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateAccount вставляет аккаунт. Баланс нового аккаунта всегда 0.
func (s *Storage) CreateAccount(ctx context.Context, a models.Account) error {
	const op = "storage.CreateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO accounts (id, email, password_hash, role, credits, parent_id,
			      subscription_status, external_customer_id)
			  VALUES ($1, $2, $3, $4, 0, $5, $6, $7)`
	_, err := s.DB.ExecContext(ctx, query, a.ID, a.Email, a.PasswordHash, a.Role,
		a.ParentID, a.SubscriptionStatus, a.ExternalCustomerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapWriteErr(err, storage.ErrNotFound))
	}
	return nil
}

// GetAccount возвращает аккаунт по ID.
func (s *Storage) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.GetAccount"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// GetAccountByEmail возвращает аккаунт по email.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// ListAccounts возвращает все аккаунты.
func (s *Storage) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	const op = "storage.ListAccounts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.queryAccounts(ctx, op, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
}

// ListChildren возвращает прямых потомков аккаунта.
func (s *Storage) ListChildren(ctx context.Context, parentID string) ([]*models.Account, error) {
	const op = "storage.ListChildren"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.queryAccounts(ctx, op,
		`SELECT `+accountColumns+` FROM accounts WHERE parent_id = $1 ORDER BY created_at, id`, parentID)
}

// ListSubtreeIDs возвращает ID аккаунта и всех его потомков.
func (s *Storage) ListSubtreeIDs(ctx context.Context, rootID string) ([]string, error) {
	const op = "storage.ListSubtreeIDs"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `WITH RECURSIVE subtree AS (
			      SELECT id FROM accounts WHERE id = $1
			      UNION
			      SELECT a.id FROM accounts a JOIN subtree t ON a.parent_id = t.id
			  )
			  SELECT id FROM subtree`
	rows, err := s.DB.QueryContext(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return ids, nil
}

// SetSubscriptionStatus выставляет флаг оплаты аккаунта по ID.
func (s *Storage) SetSubscriptionStatus(ctx context.Context, accountID string, status models.SubscriptionStatus) error {
	const op = "storage.SetSubscriptionStatus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE accounts SET subscription_status = $1 WHERE id = $2`, status, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}

// SetSubscriptionStatusByCustomer выставляет флаг оплаты по внешнему ID покупателя.
func (s *Storage) SetSubscriptionStatusByCustomer(ctx context.Context, customerID string, status models.SubscriptionStatus) error {
	const op = "storage.SetSubscriptionStatusByCustomer"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE accounts SET subscription_status = $1 WHERE external_customer_id = $2`, status, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op)
}
