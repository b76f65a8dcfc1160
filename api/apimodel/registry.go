package apimodel

import (
	"time"

	"github.com/vc-anchorage/anchorage/storage/model"
)

// CredentialSubmission is the request body for ingesting a credential.
// JWS carries the compact-serialized token; the remaining fields are
// optional overrides for values otherwise taken from the token payload.
type CredentialSubmission struct {
	JWS           string `json:"jws"`
	TokenID       string `json:"jti,omitempty"`
	Format        string `json:"format,omitempty"`
	IssuerID      string `json:"issuer_did,omitempty"`
	HolderSubject string `json:"holder_subject,omitempty"`
}

// CredentialBatch is the request body for batch credential ingestion
type CredentialBatch struct {
	Credentials []CredentialSubmission `json:"credentials"`
}

// ScanBatch is the request body for batch scan uploads
type ScanBatch struct {
	Scans []model.AddScan `json:"scans"`
}

// BatchReport summarizes a batch upload. Total counts all submitted items,
// Uploaded the ones that were committed; items skipped because they already
// existed are counted in Skipped, everything else failed item validation.
type BatchReport struct {
	Uploaded int `json:"uploaded"`
	Skipped  int `json:"skipped,omitempty"`
	Total    int `json:"total"`
}

// RevokeRequest is the request body for credential and key revocations
type RevokeRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RevokeResponse is returned by revocation endpoints; Already is set if the
// target was revoked before this request
type RevokeResponse struct {
	OK      bool `json:"ok"`
	Already bool `json:"already,omitempty"`
}

// TrustBundle is a point-in-time snapshot of all publishable issuer keys.
// Version is the number of keys in the snapshot.
type TrustBundle struct {
	Version  int               `json:"version"`
	IssuedAt time.Time         `json:"issuedAt"`
	Issuers  []model.BundleKey `json:"issuers"`
}

// RevocationList is a point-in-time snapshot of all revoked credential ids.
// Version is the number of ids in the snapshot.
type RevocationList struct {
	Version   int       `json:"version"`
	IssuedAt  time.Time `json:"issuedAt"`
	RevokedID []string  `json:"revokedJti"`
}
