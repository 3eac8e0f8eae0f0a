package models

import "time"

// User is a row of the donator table. Password holds the bcrypt hash and
// never leaves the server.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Password  string    `db:"password"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PublicUser is what registration and login return.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserProfile is the public view of a user with its creation time.
type UserProfile struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

// UserPatch lists the profile fields a user may change. Nil means unchanged.
type UserPatch struct {
	Username *string
	Email    *string
}

// Columns returns the SET assignments of the patch in a fixed order. Only
// the columns named here can ever be updated through a patch.
func (p UserPatch) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	if p.Username != nil {
		cols, vals = append(cols, "username"), append(vals, *p.Username)
	}
	if p.Email != nil {
		cols, vals = append(cols, "email"), append(vals, *p.Email)
	}
	return cols, vals
}

func (p UserPatch) IsEmpty() bool {
	cols, _ := p.Columns()
	return len(cols) == 0
}
