package model

import (
	"time"
)

// User is an account holder. The JSON form is what clients see, so the
// password hash, session tokens and avatar bytes never appear in it.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Age          int       `db:"age" json:"age"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Plaintext password awaiting hashing. Never persisted.
	NewPassword string `db:"-" json:"-"`
}

// SetPassword stages a new plaintext password. It is hashed once before the
// user is next persisted.
func (u *User) SetPassword(plain string) {
	u.NewPassword = plain
}

func (u *User) PasswordChanged() bool {
	return u.NewPassword != ""
}
