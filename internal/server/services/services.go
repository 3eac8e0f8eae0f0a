// Package services contains server-side business logic. Services return
// *apperr.Error values for failures the client should see and wrap
// everything else with the repository error as cause.
package services

import (
	"github.com/dmitrijs2005/foodable/internal/dbx"
)

// DB is the pool services query and open transactions on. *sqlx.DB
// satisfies it.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}
