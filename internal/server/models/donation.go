package models

import "time"

type DietaryPreference string

const (
	DietaryHalal      DietaryPreference = "halal"
	DietaryNonHalal   DietaryPreference = "non-halal"
	DietaryVegan      DietaryPreference = "vegan"
	DietaryVegetarian DietaryPreference = "vegetarian"
)

// DonationStatus is not a state machine: any authorized update may set any
// of the values.
type DonationStatus string

const (
	StatusPending  DonationStatus = "pending"
	StatusApproved DonationStatus = "approved"
	StatusClaimed  DonationStatus = "claimed"
	StatusExpired  DonationStatus = "expired"
)

type Donation struct {
	ID                int64             `db:"id" json:"id"`
	UserID            int64             `db:"user_id" json:"user_id"`
	ItemName          string            `db:"item_name" json:"item_name"`
	ItemQuantity      int               `db:"item_quantity" json:"item_quantity"`
	DietaryPreference DietaryPreference `db:"dietary_preference" json:"dietary_preference"`
	ExpiryDate        Date              `db:"expiry_date" json:"expiry_date"`
	ImageURL          *string           `db:"image_url" json:"image_url"`
	Status            DonationStatus    `db:"status" json:"status"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// DonationDetails is a donation joined with its donor's public fields.
type DonationDetails struct {
	Donation
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
}

// DonationFilter narrows donation listings. A zero value matches everything.
type DonationFilter struct {
	Status DonationStatus
	UserID int64
}

// DonationPatch lists the donation fields an owner may change. Nil means
// unchanged.
type DonationPatch struct {
	ItemName          *string
	ItemQuantity      *int
	DietaryPreference *DietaryPreference
	ExpiryDate        *Date
	ImageURL          *string
	Status            *DonationStatus
}

// Columns returns the SET assignments of the patch in a fixed order. Only
// the columns named here can ever be updated through a patch.
func (p DonationPatch) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	if p.ItemName != nil {
		cols, vals = append(cols, "item_name"), append(vals, *p.ItemName)
	}
	if p.ItemQuantity != nil {
		cols, vals = append(cols, "item_quantity"), append(vals, *p.ItemQuantity)
	}
	if p.DietaryPreference != nil {
		cols, vals = append(cols, "dietary_preference"), append(vals, string(*p.DietaryPreference))
	}
	if p.ExpiryDate != nil {
		cols, vals = append(cols, "expiry_date"), append(vals, *p.ExpiryDate)
	}
	if p.ImageURL != nil {
		cols, vals = append(cols, "image_url"), append(vals, *p.ImageURL)
	}
	if p.Status != nil {
		cols, vals = append(cols, "status"), append(vals, string(*p.Status))
	}
	return cols, vals
}

func (p DonationPatch) IsEmpty() bool {
	cols, _ := p.Columns()
	return len(cols) == 0
}
