package main

// Deprecated: FileStorage only exists to read json exports written by
// pre-anchorage deployments. Use the GORM storage backend instead.

import (
	"os"
	"path"

	"github.com/pkg/errors"
)

// FileStorage is a legacy storage backend that kept its records in json files
type FileStorage struct {
	files map[string]string
}

// NewFileStorage creates a new FileStorage for the given path
//
// Deprecated: Use the GORM storage backend instead.
func NewFileStorage(basepath string) *FileStorage {
	return &FileStorage{
		files: map[string]string{
			"credentials": path.Join(basepath, "credentials.json"),
			"scans":       path.Join(basepath, "scans.json"),
			"issuers":     path.Join(basepath, "issuers.json"),
			"holders":     path.Join(basepath, "holders.json"),
		},
	}
}

func readLegacyFile(file string, target any) error {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return decodeLegacy(data, target)
}

// Credentials implements the legacySource interface
func (store *FileStorage) Credentials() ([]legacyCredential, error) {
	var credsMap map[string]legacyCredential
	if err := readLegacyFile(store.files["credentials"], &credsMap); err != nil {
		return nil, err
	}
	creds := make([]legacyCredential, 0, len(credsMap))
	for jti, cred := range credsMap {
		// older exports only carried the token id as the map key
		if cred.TokenID == "" {
			cred.TokenID = jti
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

// Scans implements the legacySource interface
func (store *FileStorage) Scans() ([]legacyScan, error) {
	var scans []legacyScan
	if err := readLegacyFile(store.files["scans"], &scans); err != nil {
		return nil, err
	}
	return scans, nil
}

// Issuers implements the legacySource interface
func (store *FileStorage) Issuers() ([]legacyIssuer, error) {
	var issuersMap map[string]legacyIssuer
	if err := readLegacyFile(store.files["issuers"], &issuersMap); err != nil {
		return nil, err
	}
	issuers := make([]legacyIssuer, 0, len(issuersMap))
	for id, issuer := range issuersMap {
		if issuer.Identifier == "" {
			issuer.Identifier = id
		}
		issuers = append(issuers, issuer)
	}
	return issuers, nil
}

// Holders implements the legacySource interface
func (store *FileStorage) Holders() ([]legacyHolder, error) {
	var holdersMap map[string]legacyHolder
	if err := readLegacyFile(store.files["holders"], &holdersMap); err != nil {
		return nil, err
	}
	holders := make([]legacyHolder, 0, len(holdersMap))
	for subject, holder := range holdersMap {
		if holder.Subject == "" {
			holder.Subject = subject
		}
		holders = append(holders, holder)
	}
	return holders, nil
}
