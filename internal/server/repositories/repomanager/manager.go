package repomanager

import (
	"context"
	"database/sql"

	"unidrive/internal/dbx"
	"unidrive/internal/server/repositories/files"
	"unidrive/internal/server/repositories/folders"
	"unidrive/internal/server/repositories/invites"
	"unidrive/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so a service flow
// can run several repositories inside one transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	Folders(db dbx.DBTX) folders.Repository
	Invites(db dbx.DBTX) invites.Repository
}
