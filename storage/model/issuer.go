package model

import (
	"time"
)

// Issuer is a credential issuer known to the registry, identified by its DID
// or issuer URL.
type Issuer struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	Identifier string `gorm:"uniqueIndex" json:"issuer_id"`
	Name       string `json:"name,omitempty"`
}

// IssuerKey is a signing key registered for an issuer. Key ids are unique
// across the whole registry, not just per issuer, so that the trust bundle
// can be keyed by kid alone.
type IssuerKey struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	IssuerDBID uint   `gorm:"column:issuer_db_id;index" json:"-"`
	Issuer     Issuer `gorm:"foreignKey:IssuerDBID" json:"-"`

	KID          string `gorm:"column:kid;uniqueIndex" json:"kid"`
	Alg          string `json:"alg"`
	PublicKeyPEM string `gorm:"type:text" json:"public_key_pem"`

	IsActive     bool       `json:"is_active"`
	Revoked      bool       `gorm:"index" json:"revoked"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	RevokeReason string     `json:"revoke_reason,omitempty"`
}

// AddIssuer is the request payload for registering an issuer.
type AddIssuer struct {
	Identifier string `json:"issuer_id"`
	Name       string `json:"name,omitempty"`
}

// AddIssuerKey is the request payload for registering a signing key.
type AddIssuerKey struct {
	Issuer       string `json:"issuer_id"`
	KID          string `json:"kid"`
	Alg          string `json:"alg"`
	PublicKeyPEM string `json:"public_key_pem"`
	IsActive     *bool  `json:"is_active"`
}

// BundleKey is a single entry of the published trust bundle.
type BundleKey struct {
	Issuer       string `gorm:"column:issuer" json:"issuerId"`
	KID          string `gorm:"column:kid" json:"kid"`
	Alg          string `json:"alg"`
	PublicKeyPEM string `json:"publicKeyPem"`
}

// IssuerStore is the abstraction used by handlers.
type IssuerStore interface {
	// Register creates the issuer if it does not exist yet; registering a
	// known identifier again is a no-op.
	Register(add AddIssuer) (issuer *Issuer, created bool, err error)
	Get(identifier string) (*Issuer, error)
	List() ([]Issuer, error)
	// AddKey registers a signing key for an existing issuer. It returns a
	// NotFoundError when the issuer is unknown and a DuplicateKeyError when
	// the kid is already taken, naming the issuer that owns it.
	AddKey(add AddIssuerKey) (*IssuerKey, error)
	// RevokeKey marks the key as revoked; revoking a revoked key is a no-op.
	RevokeKey(kid, reason string) (already bool, err error)
	RevokedKeyIDs() ([]string, error)
	// ActiveKeys returns the bundle entries for all active, non-revoked keys.
	ActiveKeys() ([]BundleKey, error)
}
