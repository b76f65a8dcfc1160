package storage

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/vc-anchorage/anchorage/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db         *gorm.DB
	userParams Argon2idParams
}

var models = []any{
	&model.Credential{},
	&model.RevocationEntry{},
	&model.Issuer{},
	&model.IssuerKey{},
	&model.Holder{},
	&model.ScanEvent{},
	&model.KeyValue{},
	&model.User{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto migrate the schemas
	if err = db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Fill user hash params with defaults if zero values
	params := config.UsersHash
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}

	return &Storage{
		db:         db,
		userParams: params,
	}, nil
}

// CredentialStorage returns a CredentialStorage
func (s *Storage) CredentialStorage() *CredentialStorage {
	return &CredentialStorage{db: s.db}
}

// RevocationStorage returns a RevocationStorage
func (s *Storage) RevocationStorage() *RevocationStorage {
	return &RevocationStorage{db: s.db}
}

// IssuerStorage returns an IssuerStorage
func (s *Storage) IssuerStorage() *IssuerStorage {
	return &IssuerStorage{db: s.db}
}

// HolderStorage returns a HolderStorage
func (s *Storage) HolderStorage() *HolderStorage {
	return &HolderStorage{db: s.db}
}

// ScanStorage returns a ScanStorage
func (s *Storage) ScanStorage() *ScanStorage {
	return &ScanStorage{db: s.db}
}

// KeyValue provides an accessor for scoped key-value storage.
func (s *Storage) KeyValue() *KeyValueStorage {
	return &KeyValueStorage{db: s.db}
}

// Backends groups all storage interfaces backed by this Storage.
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Credentials: s.CredentialStorage(),
		Revocations: s.RevocationStorage(),
		Issuers:     s.IssuerStorage(),
		Holders:     s.HolderStorage(),
		Scans:       s.ScanStorage(),
		Users:       s.UsersStorage(),
		KV:          s.KeyValue(),
	}
}

// Users storage is implemented in users_storage.go

// isUniqueConstraintError performs a cheap check across supported drivers.
func isUniqueConstraintError(err error) bool {
	msg := err.Error()
	// sqlite | mysql | postgres common markers
	if
	// SQLite
	(containsAny(msg, "UNIQUE constraint failed", "constraint failed")) ||
		// MySQL
		(containsAny(msg, "Duplicate entry", "Error 1062")) ||
		// Postgres
		(containsAny(msg, "duplicate key value", "violates unique constraint")) {
		return true
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
