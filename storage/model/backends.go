package model

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Credentials CredentialStore
	Revocations RevocationStore
	Issuers     IssuerStore
	Holders     HolderStore
	Scans       ScanStore
	Users       UsersStore
	KV          KeyValueAccessor
}
