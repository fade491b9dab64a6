package types

import "time"

// User represents an account in the system.
// Every resource and file attachment is owned by exactly one user.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique across all accounts.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// LastLogin is the timestamp of the most recent successful login,
	// or nil if the user has never logged in.
	LastLogin *time.Time `json:"lastLogin,omitempty" db:"last_login"`
}
