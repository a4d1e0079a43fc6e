package auditlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, e *models.AuditEvent) error {
	query :=
		`INSERT INTO audit_events (id, account_id, identifier, operation, outcome, reason, source, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// account_id is a UUID column; an id that cannot be one names no account.
	var accountID sql.NullString
	if models.ValidAccountID(e.AccountID) {
		accountID = sql.NullString{String: e.AccountID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query,
		e.ID, accountID, e.Identifier, e.Operation, e.Outcome, e.Reason, e.Source, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByAccount returns the newest events of an account first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.AuditEvent, error) {
	query :=
		`SELECT id, account_id, identifier, operation, outcome, reason, source, occurred_at
		 FROM audit_events
		 WHERE account_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`

	if !models.ValidAccountID(accountID) {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		e := &models.AuditEvent{}
		var account sql.NullString
		if err := rows.Scan(&e.ID, &account, &e.Identifier, &e.Operation, &e.Outcome, &e.Reason, &e.Source, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.AccountID = account.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return events, nil
}
