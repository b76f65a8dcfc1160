package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vc-anchorage/anchorage/storage/model"
)

// IssuerStorage implements model.IssuerStore using GORM.
type IssuerStorage struct {
	db *gorm.DB
}

// Register creates the issuer if it does not exist yet. Registering a known
// identifier again returns the stored issuer unchanged.
func (s *IssuerStorage) Register(add model.AddIssuer) (*model.Issuer, bool, error) {
	issuer := &model.Issuer{
		Identifier: add.Identifier,
		Name:       add.Name,
	}
	created := false
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			res := tx.Clauses(
				clause.OnConflict{
					Columns:   []clause.Column{{Name: "identifier"}},
					DoNothing: true,
				},
			).Create(issuer)
			if res.Error != nil {
				return errors.Wrap(res.Error, "issuers: create failed")
			}
			created = res.RowsAffected > 0
			if !created {
				if err := tx.Where("identifier = ?", add.Identifier).First(issuer).Error; err != nil {
					return errors.Wrap(err, "issuers: get failed")
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, false, err
	}
	return issuer, created, nil
}

// Get retrieves an issuer by identifier
func (s *IssuerStorage) Get(identifier string) (*model.Issuer, error) {
	var issuer model.Issuer
	if err := s.db.Where("identifier = ?", identifier).First(&issuer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("issuer not found: %s", identifier)
		}
		return nil, errors.Wrap(err, "issuers: get failed")
	}
	return &issuer, nil
}

// List returns all issuers
func (s *IssuerStorage) List() ([]model.Issuer, error) {
	var issuers []model.Issuer
	if err := s.db.Find(&issuers).Error; err != nil {
		return nil, errors.Wrap(err, "issuers: list failed")
	}
	return issuers, nil
}

// AddKey registers a signing key for an existing issuer. Key ids are unique
// across all issuers; a conflict reports the issuer that owns the kid.
func (s *IssuerStorage) AddKey(add model.AddIssuerKey) (*model.IssuerKey, error) {
	isActive := true
	if add.IsActive != nil {
		isActive = *add.IsActive
	}
	var key *model.IssuerKey
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var issuer model.Issuer
			if err := tx.Where("identifier = ?", add.Issuer).First(&issuer).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("issuer not found: %s", add.Issuer)
				}
				return errors.Wrap(err, "issuers: get failed")
			}
			var existing model.IssuerKey
			err := tx.Where("kid = ?", add.KID).First(&existing).Error
			if err == nil {
				return s.duplicateKeyError(tx, &existing)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(err, "issuer_keys: get failed")
			}

			key = &model.IssuerKey{
				IssuerDBID:   issuer.ID,
				KID:          add.KID,
				Alg:          add.Alg,
				PublicKeyPEM: add.PublicKeyPEM,
				IsActive:     isActive,
			}
			if err = tx.Create(key).Error; err != nil {
				if isUniqueConstraintError(err) {
					// lost the race against a concurrent registration of the kid
					return model.DuplicateKeyError{KID: add.KID}
				}
				return errors.Wrap(err, "issuer_keys: create failed")
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// duplicateKeyError builds a DuplicateKeyError naming the issuer that owns
// the conflicting key.
func (s *IssuerStorage) duplicateKeyError(tx *gorm.DB, existing *model.IssuerKey) error {
	dup := model.DuplicateKeyError{KID: existing.KID}
	var owner model.Issuer
	if err := tx.First(&owner, existing.IssuerDBID).Error; err == nil {
		dup.Issuer = owner.Identifier
	}
	return dup
}

// RevokeKey marks the key as revoked. Revoking a revoked key reports already
// instead of failing.
func (s *IssuerStorage) RevokeKey(kid, reason string) (bool, error) {
	already := false
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var key model.IssuerKey
			if err := tx.Where("kid = ?", kid).First(&key).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("issuer key not found: %s", kid)
				}
				return errors.Wrap(err, "issuer_keys: get failed")
			}
			if key.Revoked {
				already = true
				return nil
			}
			now := time.Now().UTC()
			key.Revoked = true
			key.RevokedAt = &now
			key.RevokeReason = reason
			if err := tx.Save(&key).Error; err != nil {
				return errors.Wrap(err, "issuer_keys: update failed")
			}
			return nil
		},
	)
	return already, err
}

// RevokedKeyIDs returns the kids of all revoked keys.
func (s *IssuerStorage) RevokedKeyIDs() ([]string, error) {
	var kids []string
	if err := s.db.Model(&model.IssuerKey{}).
		Where("revoked = ?", true).
		Pluck("kid", &kids).Error; err != nil {
		return nil, errors.Wrap(err, "issuer_keys: list revoked failed")
	}
	return kids, nil
}

// ActiveKeys returns bundle entries for all keys that are active and not
// revoked, joined with the identifier of the owning issuer.
func (s *IssuerStorage) ActiveKeys() ([]model.BundleKey, error) {
	var entries []model.BundleKey
	err := s.db.Model(&model.IssuerKey{}).
		Select(
			"issuers.identifier AS issuer, issuer_keys.kid AS kid, issuer_keys.alg AS alg, " +
				"issuer_keys.public_key_pem AS public_key_pem",
		).
		Joins("JOIN issuers ON issuers.id = issuer_keys.issuer_db_id").
		Where("issuer_keys.is_active = ? AND issuer_keys.revoked = ?", true, false).
		Order("issuer_keys.id ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "issuer_keys: list active failed")
	}
	return entries, nil
}
