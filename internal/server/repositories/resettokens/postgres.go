package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Put(ctx context.Context, t *models.ResetToken) error {
	if !models.ValidAccountID(t.AccountID) {
		return common.ErrorNotFound
	}
	query := `
		INSERT INTO reset_tokens (id, account_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE
		SET id = EXCLUDED.id, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.AccountID, t.CreatedAt, t.ExpiresAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.ResetToken, error) {
	query := `SELECT id, account_id, created_at, expires_at FROM reset_tokens WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Take(ctx context.Context, id string) (*models.ResetToken, error) {
	query := `DELETE FROM reset_tokens WHERE id = $1 RETURNING id, account_id, created_at, expires_at`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	if !models.ValidAccountID(accountID) {
		return 0, nil
	}
	return r.exec(ctx, `DELETE FROM reset_tokens WHERE account_id = $1`, accountID)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM reset_tokens WHERE expires_at <= $1`, now)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanOne(row *sql.Row) (*models.ResetToken, error) {
	t := &models.ResetToken{}
	if err := row.Scan(&t.ID, &t.AccountID, &t.CreatedAt, &t.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
