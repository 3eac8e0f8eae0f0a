package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	mysqlDupEntry        = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsPostgres reports whether db talks to PostgreSQL.
func IsPostgres(db DBTX) bool {
	switch db.DriverName() {
	case DriverPostgres, "postgres":
		return true
	}
	return false
}

// InsertReturningID runs an INSERT written with ? placeholders and returns
// the generated id. MySQL reports it through LastInsertId, PostgreSQL needs
// a RETURNING clause.
func InsertReturningID(ctx context.Context, db DBTX, query string, args ...any) (int64, error) {
	if IsPostgres(db) {
		var id int64
		err := db.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// IsUniqueViolation reports a duplicate key on a unique index.
func IsUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDupEntry
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	return false
}

// IsForeignKeyViolation reports a reference to a row that does not exist.
func IsForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoReferencedRow || me.Number == mysqlRowIsReferenced
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgForeignKeyViolation
	}
	return false
}

// IsConnError reports failures to reach the database at all.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// IsDriverError reports any error raised by the database server itself.
func IsDriverError(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return true
	}
	var pe *pgconn.PgError
	return errors.As(err, &pe)
}
