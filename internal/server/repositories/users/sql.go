package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/foodable/internal/common"
	"github.com/dmitrijs2005/foodable/internal/dbx"
	"github.com/dmitrijs2005/foodable/internal/server/models"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, email, password, created_at, updated_at`

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO donator (username, email, password)
		 VALUES (?, ?, ?)`

	id, err := dbx.InsertReturningID(ctx, r.db, query, user.Username, user.Email, user.Password)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

func (r *SQLRepository) get(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM donator WHERE ` + where + ` = ?`

	user := &models.User{}
	if err := sqlx.GetContext(ctx, r.db, user, r.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, "id", id)
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "email", email)
}

func (r *SQLRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT COUNT(*) FROM donator WHERE email = ?`

	var n int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(query), email).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) List(ctx context.Context, limit, offset int) ([]models.UserProfile, error) {
	query :=
		`SELECT id, username, email, created_at FROM donator
		 ORDER BY id
		 LIMIT ? OFFSET ?`

	users := []models.UserProfile{}
	if err := sqlx.SelectContext(ctx, r.db, &users, r.db.Rebind(query), limit, offset); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM donator`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, patch models.UserPatch) error {
	cols, args := patch.Columns()
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	query := `UPDATE donator SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	query := `UPDATE donator SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), hash, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM donator WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
