package types

import "time"

// User represents an account in the system.
// It contains identity, profile, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// FirstName is the user's given name. May be empty.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the user's family name. May be empty.
	LastName string `json:"last_name" db:"last_name"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Active indicates whether the account may authenticate.
	// Inactive accounts are refused at token issuance.
	Active bool `json:"active" db:"active"`

	// GroupIDs are the identifiers of the groups this user belongs to.
	GroupIDs []int `json:"groups" db:"-"`

	// DateJoined is the timestamp when the user account was created.
	DateJoined time.Time `json:"date_joined" db:"date_joined"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
