package accounts

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

const accountColumns = `id, identifier, status, lock_reason, role,
	email, phone, first_name, middle_name, last_name, gender, birthdate,
	last_login_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query :=
		`INSERT INTO accounts (id, identifier, status, lock_reason, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	role := a.Role
	if role == "" {
		role = models.RoleUser
	}
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Identifier, string(a.Status), a.LockReason, string(role), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrDuplicateIdentifier
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if !models.ValidAccountID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE identifier = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Account, error) {
	if !models.ValidAccountID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.AccountStatus, lockReason string, at time.Time) error {
	query :=
		`UPDATE accounts SET status = $2, lock_reason = $3, updated_at = $4
		 WHERE id = $1`

	return r.execOne(ctx, id, query, string(status), lockReason, at)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) error {
	query :=
		`UPDATE accounts SET email = $2, phone = $3, first_name = $4, middle_name = $5,
		 last_name = $6, gender = $7, birthdate = $8, updated_at = $9
		 WHERE id = $1`

	var birthdate sql.NullTime
	if p.Birthdate != nil {
		birthdate = sql.NullTime{Time: *p.Birthdate, Valid: true}
	}
	return r.execOne(ctx, id, query,
		p.Email, p.Phone, p.FirstName, p.MiddleName, p.LastName, string(p.Gender), birthdate, at)
}

func (r *PostgresRepository) SetRole(ctx context.Context, id string, role models.Role, at time.Time) error {
	query := `UPDATE accounts SET role = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, id, query, string(role), at)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = $2 WHERE id = $1`
	return r.execOne(ctx, id, query, at)
}

// execOne runs an UPDATE keyed by id as $1 and reports ErrorNotFound when
// no row matched.
func (r *PostgresRepository) execOne(ctx context.Context, id, query string, args ...any) error {
	if !models.ValidAccountID(id) {
		return common.ErrorNotFound
	}
	res, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, id OFFSET $1 LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM accounts WHERE status = $1 AND updated_at < $2`

	res, err := r.db.ExecContext(ctx, query, string(models.StatusPendingDeletion), before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	a := &models.Account{}
	var (
		status, role, gender   string
		birthdate, lastLoginAt sql.NullTime
	)
	err := s.Scan(&a.ID, &a.Identifier, &status, &a.LockReason, &role,
		&a.Profile.Email, &a.Profile.Phone, &a.Profile.FirstName, &a.Profile.MiddleName, &a.Profile.LastName,
		&gender, &birthdate, &lastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.AccountStatus(status)
	a.Role = models.Role(role)
	a.Profile.Gender = models.Gender(gender)
	if birthdate.Valid {
		d := birthdate.Time
		a.Profile.Birthdate = &d
	}
	if lastLoginAt.Valid {
		t := lastLoginAt.Time
		a.LastLoginAt = &t
	}
	return a, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
