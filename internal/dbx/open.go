package dbx

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/foodable/internal/logging"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// Driver names registered with database/sql.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

// Config describes how to reach the database.
type Config struct {
	Driver       string // mysql or postgres
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
}

// DriverName maps the configured dialect to a database/sql driver name.
func (c Config) DriverName() string {
	if c.Driver == "postgres" || c.Driver == DriverPostgres {
		return DriverPostgres
	}
	return DriverMySQL
}

// DSN renders the connection string for the configured driver.
func (c Config) DSN() string {
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))

	if c.DriverName() == DriverPostgres {
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     addr,
			Path:     "/" + c.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4", "time_zone": "'+00:00'"}
	return mc.FormatDSN()
}

// retryDelays are the pauses between connection attempts.
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// Open creates the connection pool and pings the server, retrying with
// exponential backoff before giving up.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	for attempt := 0; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			logger.Info(ctx, "database connected", "driver", cfg.DriverName(), "host", cfg.Host, "database", cfg.Name)
			return db, nil
		}
		if attempt >= len(retryDelays) {
			_ = db.Close()
			return nil, fmt.Errorf("database connection failed after %d attempts: %w", attempt+1, err)
		}

		delay := retryDelays[attempt]
		logger.Warn(ctx, "database connection failed, retrying", "attempt", attempt+1, "delay", delay.String(), "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		}
	}
}
