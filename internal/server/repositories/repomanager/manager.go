// Package repomanager hands out repositories bound to a dbx.DBTX handle,
// which is either the shared *sql.DB or an open transaction. Services use
// the same manager for both plain reads and atomic multi-repository units.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/okolesov/postline/internal/dbx"
	"github.com/okolesov/postline/internal/server/repositories/posts"
	"github.com/okolesov/postline/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
}
