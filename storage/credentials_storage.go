package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vc-anchorage/anchorage/storage/model"
)

// CredentialStorage implements model.CredentialStore using GORM.
type CredentialStorage struct {
	db *gorm.DB
}

// errConcurrentRevocation marks a revocation that lost the race against a
// concurrent one; the caller treats it as the idempotent no-op case.
var errConcurrentRevocation = errors.New("revocation already recorded")

// Ingest stores the credential and appends the scan event in one transaction.
// When the token id is already present the stored credential is kept untouched
// and only the scan is appended; losing a race against a concurrent ingest of
// the same token id yields the same outcome.
func (s *CredentialStorage) Ingest(cred *model.Credential, scan *model.ScanEvent) (*model.Credential, bool, error) {
	stored := &model.Credential{}
	created := false
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			res := tx.Clauses(
				clause.OnConflict{
					Columns:   []clause.Column{{Name: "token_id"}},
					DoNothing: true,
				},
			).Create(cred)
			if res.Error != nil {
				return errors.Wrap(res.Error, "credentials: create failed")
			}
			created = res.RowsAffected > 0
			if err := tx.Where("token_id = ?", cred.TokenID).First(stored).Error; err != nil {
				return errors.Wrap(err, "credentials: get failed")
			}
			if scan != nil {
				scan.TokenID = stored.TokenID
				if scan.ScannedAt.IsZero() {
					scan.ScannedAt = time.Now().UTC()
				}
				if err := tx.Create(scan).Error; err != nil {
					return errors.Wrap(err, "scans: create failed")
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// IngestBatch stores the given credentials in one transaction, skipping token
// ids that are already present. The batch commits as a whole or not at all.
func (s *CredentialStorage) IngestBatch(creds []*model.Credential) (inserted, skipped int, err error) {
	err = s.db.Transaction(
		func(tx *gorm.DB) error {
			for _, cred := range creds {
				res := tx.Clauses(
					clause.OnConflict{
						Columns:   []clause.Column{{Name: "token_id"}},
						DoNothing: true,
					},
				).Create(cred)
				if res.Error != nil {
					return errors.Wrap(res.Error, "credentials: batch create failed")
				}
				if res.RowsAffected > 0 {
					inserted++
				} else {
					skipped++
				}
			}
			return nil
		},
	)
	if err != nil {
		return 0, 0, err
	}
	return
}

// Revoke flips the credential to revoked and records the revocation entry in
// one transaction. Revoking an already revoked credential reports already
// instead of failing; the status flip and the entry always land together.
func (s *CredentialStorage) Revoke(tokenID, reason string) (bool, error) {
	already := false
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var cred model.Credential
			if err := tx.Where("token_id = ?", tokenID).First(&cred).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("credential not found: %s", tokenID)
				}
				return errors.Wrap(err, "credentials: get failed")
			}
			var existing model.RevocationEntry
			err := tx.Where("token_id = ?", tokenID).First(&existing).Error
			if err == nil {
				already = true
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(err, "revocations: get failed")
			}

			now := time.Now().UTC()
			cred.Status = model.StatusRevoked
			cred.RevokedAt = &now
			cred.RevokeReason = reason
			if err = tx.Save(&cred).Error; err != nil {
				return errors.Wrap(err, "credentials: update failed")
			}
			entry := model.RevocationEntry{
				TokenID:   tokenID,
				RevokedAt: now,
				Reason:    reason,
			}
			if err = tx.Create(&entry).Error; err != nil {
				if isUniqueConstraintError(err) {
					return errConcurrentRevocation
				}
				return errors.Wrap(err, "revocations: create failed")
			}
			return nil
		},
	)
	if err != nil {
		if errors.Is(err, errConcurrentRevocation) {
			return true, nil
		}
		return false, err
	}
	return already, nil
}

// Get retrieves a credential by token id
func (s *CredentialStorage) Get(tokenID string) (*model.Credential, error) {
	var cred model.Credential
	if err := s.db.Where("token_id = ?", tokenID).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("credential not found: %s", tokenID)
		}
		return nil, errors.Wrap(err, "credentials: get failed")
	}
	return &cred, nil
}

// ListByHolder returns the holder's credentials, newest first.
func (s *CredentialStorage) ListByHolder(subject string) ([]model.Credential, error) {
	var creds []model.Credential
	if err := s.db.Where("holder_subject = ?", subject).
		Order("created_at DESC").
		Find(&creds).Error; err != nil {
		return nil, errors.Wrap(err, "credentials: list by holder failed")
	}
	return creds, nil
}

// Reseal re-encrypts every stored credential payload, e.g. when rotating the
// vault key. unseal must decrypt with the old key, seal encrypts with the new
// one. The run commits as a whole or not at all.
func (s *CredentialStorage) Reseal(unseal, seal func(string) (string, error)) (int, error) {
	var n int
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			var creds []model.Credential
			if err := tx.Find(&creds).Error; err != nil {
				return errors.Wrap(err, "credentials: list failed")
			}
			for _, cred := range creds {
				plain, err := unseal(cred.EncryptedPayload)
				if err != nil {
					return errors.Wrapf(err, "could not unseal credential '%s'", cred.TokenID)
				}
				sealed, err := seal(plain)
				if err != nil {
					return err
				}
				if err = tx.Model(&model.Credential{}).
					Where("token_id = ?", cred.TokenID).
					Update("encrypted_payload", sealed).Error; err != nil {
					return errors.Wrap(err, "credentials: update failed")
				}
				n++
			}
			return nil
		},
	)
	if err != nil {
		return 0, err
	}
	return n, nil
}
