package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/users/internal/server/repositories/auditlog"
	"github.com/dmitrijs2005/users/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/users/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/users/internal/server/repositories/sessions"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code path
// works against a pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
}
