package model

import (
	"time"
)

// UserTypeDefault is assigned to registered users that do not request a
// specific type.
const UserTypeDefault = "user"

// UserTypeAdmin marks users that may access the admin endpoints.
const UserTypeAdmin = "admin"

// User represents an API user that can access the authenticated endpoints.
// When no users exist, the authenticated API is open; when one or more users
// exist, only authenticated users may access it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Username is unique identifier for login
	Username string `gorm:"uniqueIndex" json:"username"`
	// PasswordHash stores a PHC-formatted argon2id hash of the user's password
	PasswordHash string `json:"-"`
	// Type is a free-form role marker, e.g. "user" or "admin"
	Type string `json:"user_type"`
	// Disabled allows soft-disable of a user without deletion
	Disabled bool `json:"disabled"`
}

// UsersStore abstracts CRUD and authentication helpers for API users.
type UsersStore interface {
	// Count returns the number of users present in the store
	Count() (int64, error)
	// List returns all users (without password hashes)
	List() ([]User, error)
	// Get returns a user by username
	Get(username string) (*User, error)
	// Create creates a user; the implementation must hash the password
	Create(username, password, userType string) (*User, error)
	// Update updates user type and optionally password
	Update(username string, userType *string, newPassword *string, disabled *bool) (*User, error)
	// Delete deletes a user by username
	Delete(username string) error
	// Authenticate checks a username/password combo and returns the user
	Authenticate(username, password string) (*User, error)
}
