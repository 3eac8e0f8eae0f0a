package donations

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

const (
	donationColumns = `d.id, d.user_id, d.item_name, d.item_quantity, d.dietary_preference,
		d.expiry_date, d.image_url, d.status, d.created_at, d.updated_at`

	detailsFrom = `FROM donations d
		JOIN donator u ON u.id = d.user_id`
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, d *models.Donation) (*models.Donation, error) {
	if d.Status == "" {
		d.Status = models.StatusPending
	}

	query :=
		`INSERT INTO donations (user_id, item_name, item_quantity, dietary_preference, expiry_date, image_url, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := dbx.InsertReturningID(ctx, r.db, query,
		d.UserID, d.ItemName, d.ItemQuantity, string(d.DietaryPreference), d.ExpiryDate, d.ImageURL, string(d.Status))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	d.ID = id
	return d, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.DonationDetails, error) {
	query := `SELECT ` + donationColumns + `, u.username, u.email
		` + detailsFrom + `
		WHERE d.id = ?`

	d := &models.DonationDetails{}
	if err := sqlx.GetContext(ctx, r.db, d, r.db.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

// where renders the filter as a WHERE clause over the d alias.
func where(filter models.DonationFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "d.status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.UserID != 0 {
		conds = append(conds, "d.user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SQLRepository) List(ctx context.Context, filter models.DonationFilter, limit, offset int) ([]models.DonationDetails, error) {
	cond, args := where(filter)
	query := `SELECT ` + donationColumns + `, u.username, u.email
		` + detailsFrom + cond + `
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	list := []models.DonationDetails{}
	if err := sqlx.SelectContext(ctx, r.db, &list, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *SQLRepository) Count(ctx context.Context, filter models.DonationFilter) (int, error) {
	cond, args := where(filter)
	query := `SELECT COUNT(*) FROM donations d` + cond

	var n int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Donation, error) {
	query := `SELECT ` + donationColumns + `
		FROM donations d
		WHERE d.user_id = ?
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT ? OFFSET ?`

	list := []models.Donation{}
	if err := sqlx.SelectContext(ctx, r.db, &list, r.db.Rebind(query), userID, limit, offset); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *SQLRepository) LockOwner(ctx context.Context, id int64) (int64, error) {
	query := `SELECT user_id FROM donations WHERE id = ? FOR UPDATE`

	var owner int64
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(query), id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return owner, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int64, patch models.DonationPatch) error {
	cols, args := patch.Columns()
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	query := `UPDATE donations SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM donations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
