package repomanager

import (
	"context"
	"database/sql"

	"github.com/A1iAshoor/s3-relay/internal/dbx"
	"github.com/A1iAshoor/s3-relay/internal/server/repositories/queue"
)

// RepositoryManager vends storage-backed repositories and owns schema
// migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Queue(db dbx.DBTX) queue.Repository
}
