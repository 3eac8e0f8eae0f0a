package refreshtokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foodable/internal/dbx"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	query :=
		`INSERT INTO refresh_tokens (user_id, token, expires_at)
		 VALUES (?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), userID, token, expiresAt.UTC()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Exists(ctx context.Context, token string, userID int64) (bool, error) {
	query :=
		`SELECT COUNT(*) FROM refresh_tokens
		 WHERE token = ? AND user_id = ? AND expires_at > NOW()`

	var n int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(query), token, userID).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM refresh_tokens WHERE user_id = ?`), userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
