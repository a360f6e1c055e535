package repomanager

import (
	"context"
	"database/sql"

	"ipfsmarket/internal/dbx"
	"ipfsmarket/internal/server/repositories/assets"
	"ipfsmarket/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes a schema migration hook. Passing a *sql.Tx yields transactional
// repositories.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Assets(db dbx.DBTX) assets.Repository
}
