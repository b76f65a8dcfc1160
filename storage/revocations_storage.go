package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vc-anchorage/anchorage/storage/model"
)

// RevocationStorage implements model.RevocationStore using GORM. Entries are
// written by CredentialStorage.Revoke; this storage only reads them.
type RevocationStorage struct {
	db *gorm.DB
}

// TokenIDs returns the token ids of all revocation entries.
func (s *RevocationStorage) TokenIDs() ([]string, error) {
	var ids []string
	if err := s.db.Model(&model.RevocationEntry{}).Pluck("token_id", &ids).Error; err != nil {
		return nil, errors.Wrap(err, "revocations: list token ids failed")
	}
	return ids, nil
}

// List returns all revocation entries, newest first.
func (s *RevocationStorage) List() ([]model.RevocationEntry, error) {
	var items []model.RevocationEntry
	if err := s.db.Order("revoked_at DESC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "revocations: list failed")
	}
	return items, nil
}

// Restore inserts revocation entries carried over from another deployment,
// keeping their original timestamps. Token ids that already have an entry are
// left untouched.
func (s *RevocationStorage) Restore(entries []model.RevocationEntry) error {
	if len(entries) == 0 {
		return nil
	}
	err := s.db.Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoNothing: true,
		},
	).Create(&entries).Error
	return errors.Wrap(err, "revocations: restore failed")
}
