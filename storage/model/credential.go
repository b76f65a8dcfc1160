package model

import (
	"time"

	"gorm.io/datatypes"
)

// FormatJWS is the only supported credential format: a compact-serialized
// JWS/JWT string.
const FormatJWS = "jws"

// Credential is a stored verifiable credential. The raw token is kept only in
// encrypted form; all queryable fields are extracted from the (unverified)
// payload at ingest time.
type Credential struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`

	// TokenID is the jti of the credential and unique across the registry.
	TokenID string `gorm:"uniqueIndex" json:"jti"`
	Format  string `json:"format"`

	IssuerID      string `gorm:"index" json:"issuer_did"`
	HolderSubject string `gorm:"index" json:"holder_subject"`

	// Types holds the normalized vc.type claim as a JSON array, or null when
	// the claim was absent or unusable.
	Types datatypes.JSON `json:"types"`

	IssuedAt  *time.Time `json:"issued_at"`
	NotBefore *time.Time `json:"not_before"`
	ExpiresAt *time.Time `json:"expires_at"`

	Status       Status     `gorm:"index" json:"status"`
	RevokedAt    *time.Time `json:"revoked_at"`
	RevokeReason string     `json:"revoke_reason,omitempty"`

	// EncryptedPayload is the sealed raw token; it never leaves the server
	// unless explicitly requested by an authenticated caller.
	EncryptedPayload string `gorm:"type:text" json:"-"`
	// Fingerprint is the hex sha256 of the raw token, for audit correlation.
	Fingerprint string `gorm:"index" json:"-"`
}

// CredentialStore is the abstraction used by handlers.
type CredentialStore interface {
	// Ingest stores a credential and appends the accompanying scan event in a
	// single transaction. When a credential with the same token id already
	// exists the stored one is returned and only the scan is appended.
	Ingest(cred *Credential, scan *ScanEvent) (stored *Credential, created bool, err error)
	// IngestBatch stores all given credentials in a single transaction,
	// skipping those whose token id is already present. Either the whole
	// batch is committed or none of it is.
	IngestBatch(creds []*Credential) (inserted, skipped int, err error)
	// Revoke marks the credential as revoked and records a revocation entry
	// in a single transaction. Revoking an already revoked credential is a
	// no-op and reported through already.
	Revoke(tokenID, reason string) (already bool, err error)
	Get(tokenID string) (*Credential, error)
	// ListByHolder returns the holder's credentials, newest first.
	ListByHolder(subject string) ([]Credential, error)
}
