package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Put(ctx context.Context, c *models.Credential) error {
	query :=
		`INSERT INTO credentials (account_id, algorithm, policy_version, params, salt, hash, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $7)`

	_, err := r.db.ExecContext(ctx, query,
		c.AccountID, c.Algorithm, c.PolicyVersion, c.Params, c.Salt, c.Hash, c.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) || dbx.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: credential for account %s", common.ErrConflict, c.AccountID)
		}
		return fmt.Errorf("db error: %w", err)
	}
	c.Version = 1
	c.UpdatedAt = c.CreatedAt
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, accountID string) (*models.Credential, error) {
	query :=
		`SELECT account_id, algorithm, policy_version, params, salt, hash, version, created_at, updated_at
		 FROM credentials
		 WHERE account_id = $1`

	c := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&c.AccountID, &c.Algorithm, &c.PolicyVersion, &c.Params, &c.Salt, &c.Hash, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Rotate(ctx context.Context, c *models.Credential, expectedVersion int64) error {
	query :=
		`UPDATE credentials
		 SET algorithm = $3, policy_version = $4, params = $5, salt = $6, hash = $7,
		     version = version + 1, updated_at = $8
		 WHERE account_id = $1 AND version = $2
		 RETURNING version`

	err := r.db.QueryRowContext(ctx, query,
		c.AccountID, expectedVersion, c.Algorithm, c.PolicyVersion, c.Params, c.Salt, c.Hash, c.UpdatedAt).
		Scan(&c.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: credential version %d is stale", common.ErrConflict, expectedVersion)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID string) error {
	query := `DELETE FROM credentials WHERE account_id = $1`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
