package model

import (
	"time"
)

// Holder is a credential holder known to the registry, identified by its
// DID or subject identifier.
type Holder struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Subject     string `gorm:"uniqueIndex" json:"subject"`
	DisplayName string `json:"display_name,omitempty"`
}

// AddHolder is the request payload for registering a holder.
type AddHolder struct {
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name,omitempty"`
}

// HolderStore is the abstraction used by handlers.
type HolderStore interface {
	// Register creates the holder if it does not exist yet; registering a
	// known subject again is a no-op.
	Register(add AddHolder) (holder *Holder, created bool, err error)
	Get(subject string) (*Holder, error)
	List() ([]Holder, error)
}
