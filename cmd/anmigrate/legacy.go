package main

import (
	"encoding/json"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// legacyCredential is a credential record as written by pre-anchorage
// deployments. The token is stored in the clear as raw_vc; sealing happens
// on the way into the new database.
type legacyCredential struct {
	TokenID       string     `json:"jti"`
	JWS           string     `json:"raw_vc"`
	Format        string     `json:"format"`
	IssuerID      string     `json:"issuer_did"`
	HolderSubject string     `json:"holder_subject"`
	Types         []string   `json:"vc_type"`
	Status        string     `json:"status"`
	IssuedAt      *time.Time `json:"issued_at"`
	NotBefore     *time.Time `json:"not_before"`
	ExpiresAt     *time.Time `json:"expires_at"`
	RevokedAt     *time.Time `json:"revoked_at"`
	RevokeReason  string     `json:"revoke_reason"`
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (c *legacyCredential) UnmarshalJSON(src []byte) error {
	type credential legacyCredential
	cc := credential(*c)
	if err := json.Unmarshal(src, &cc); err != nil {
		return err
	}
	*c = legacyCredential(cc)
	return nil
}

// UnmarshalMsgpack implements the msgpack.Unmarshaler interface
func (c *legacyCredential) UnmarshalMsgpack(src []byte) error {
	type credential legacyCredential
	cc := credential(*c)
	if err := msgpack.Unmarshal(src, &cc); err != nil {
		return err
	}
	*c = legacyCredential(cc)
	return nil
}

type legacyScan struct {
	TokenID   string     `json:"jti"`
	Verified  bool       `json:"verified"`
	ScannedAt *time.Time `json:"scanned_at"`
	DeviceID  string     `json:"device_id"`
	Location  string     `json:"location"`
}

type legacyIssuer struct {
	Identifier string            `json:"issuer_id"`
	Name       string            `json:"name"`
	Keys       []legacyIssuerKey `json:"keys"`
}

type legacyIssuerKey struct {
	KID          string `json:"kid"`
	Alg          string `json:"alg"`
	PublicKeyPEM string `json:"public_key_pem"`
	IsActive     *bool  `json:"is_active"`
	Revoked      bool   `json:"revoked"`
	RevokeReason string `json:"revoke_reason"`
}

type legacyHolder struct {
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name"`
}

// legacySource loads the records of a pre-anchorage data store.
type legacySource interface {
	Credentials() ([]legacyCredential, error)
	Scans() ([]legacyScan, error)
	Issuers() ([]legacyIssuer, error)
	Holders() ([]legacyHolder, error)
}

// decodeLegacy decodes a stored value. Newer deployments wrote json, older
// ones msgpack, so both are tried.
func decodeLegacy(v []byte, target any) error {
	if err := json.Unmarshal(v, target); err != nil {
		if e := msgpack.Unmarshal(v, target); e != nil {
			return err
		}
	}
	return nil
}
