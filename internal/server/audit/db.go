package audit

import (
	"context"

	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/repositories/auditlog"
)

// DBSink appends events to the audit_events table.
type DBSink struct {
	runner dbx.Runner
	repo   func(db dbx.DBTX) auditlog.Repository
}

func NewDBSink(runner dbx.Runner, repo func(db dbx.DBTX) auditlog.Repository) *DBSink {
	return &DBSink{runner: runner, repo: repo}
}

func (s *DBSink) Name() string { return "database" }

func (s *DBSink) Publish(ctx context.Context, e models.AuditEvent) error {
	return s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		return s.repo(db).Insert(ctx, &e)
	})
}
