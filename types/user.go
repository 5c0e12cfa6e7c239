package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user (UUID).
	ID string `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address, stored lowercase.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
