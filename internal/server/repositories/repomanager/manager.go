package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/donations"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Donations(db dbx.DBTX) donations.Repository
}
