package sessions

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

// PostgresRepository implements session storage over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, account_id, issued_at, expires_at, last_seen_at, source, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.AccountID, s.IssuedAt, s.ExpiresAt, s.LastSeenAt, s.Source, s.UserAgent)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the session stored under id, or common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, account_id, issued_at, expires_at, last_seen_at, revoked, revoked_at, source, user_agent
		FROM sessions
		WHERE id = $1
	`
	s := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.AccountID, &s.IssuedAt, &s.ExpiresAt, &s.LastSeenAt, &s.Revoked, &s.RevokedAt, &s.Source, &s.UserAgent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Extend(ctx context.Context, id string, now, expiresAt time.Time) (bool, error) {
	query := `
		UPDATE sessions SET expires_at = $3, last_seen_at = $2
		WHERE id = $1 AND revoked = FALSE AND expires_at > $2
	`
	return r.execAffected(ctx, query, id, now, expiresAt)
}

func (r *PostgresRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE sessions SET revoked = TRUE, revoked_at = $2
		WHERE id = $1 AND revoked = FALSE
	`
	return r.execAffected(ctx, query, id, at)
}

func (r *PostgresRepository) RevokeAll(ctx context.Context, accountID string, at time.Time) (int64, error) {
	query := `
		UPDATE sessions SET revoked = TRUE, revoked_at = $2
		WHERE account_id = $1 AND revoked = FALSE
	`
	return r.exec(ctx, query, accountID, at)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, accountID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM sessions WHERE account_id = $1`, accountID)
}

func (r *PostgresRepository) CountActive(ctx context.Context, accountID string, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM sessions
		WHERE account_id = $1 AND revoked = FALSE AND expires_at > $2
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, accountID, now).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now, revokedBefore time.Time) (int64, error) {
	query := `
		DELETE FROM sessions
		WHERE expires_at <= $1 OR (revoked = TRUE AND revoked_at < $2)
	`
	return r.exec(ctx, query, now, revokedBefore)
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

func (r *PostgresRepository) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	n, err := r.exec(ctx, query, args...)
	return n > 0, err
}
