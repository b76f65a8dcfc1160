package model

import (
	"time"
)

// RevocationEntry records a single revoked credential. Entries are written
// together with the status flip on the credential and are never deleted, so
// the table is the authoritative source for the revocation list artifact.
type RevocationEntry struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	RevokedAt time.Time `json:"revoked_at"`

	TokenID string `gorm:"uniqueIndex" json:"jti"`
	Reason  string `json:"reason,omitempty"`
}

// RevocationStore is the abstraction used by handlers.
type RevocationStore interface {
	// TokenIDs returns the token ids of all revoked credentials.
	TokenIDs() ([]string, error)
	List() ([]RevocationEntry, error)
}
