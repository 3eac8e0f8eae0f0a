// Package repomanager provides a concrete RepositoryManager for the supported
// SQL dialects, wiring together repository constructors and database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/dmitrijs2005/foodable/internal/server/migrations"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/donations"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/foodable/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repository implementations and
// exposes a schema migration hook. Every handle it receives is wrapped with
// slow query logging.
type SQLRepositoryManager struct {
	dialect   string
	slowQuery time.Duration
	logger    logging.Logger
}

// NewSQLRepositoryManager constructs a RepositoryManager for a database/sql
// driver name (dbx.DriverMySQL or dbx.DriverPostgres).
func NewSQLRepositoryManager(driverName string, slowQuery time.Duration, logger logging.Logger) *SQLRepositoryManager {
	dialect := "mysql"
	if driverName == dbx.DriverPostgres || driverName == "postgres" {
		dialect = "postgres"
	}
	return &SQLRepositoryManager{dialect: dialect, slowQuery: slowQuery, logger: logger}
}

// Dialect returns the goose dialect used for migrations.
func (m *SQLRepositoryManager) Dialect() string { return m.dialect }

func (m *SQLRepositoryManager) wrap(db dbx.DBTX) dbx.DBTX {
	return dbx.WithSlowQueryLog(db, m.slowQuery, m.logger)
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(m.wrap(db))
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewSQLRepository(m.wrap(db))
}

// Donations returns a donations.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Donations(db dbx.DBTX) donations.Repository {
	return donations.NewSQLRepository(m.wrap(db))
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations of the dialect
// and runs them against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, migrations.Dir(m.dialect))
}
