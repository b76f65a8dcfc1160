package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vc-anchorage/anchorage/storage/model"
)

// HolderStorage implements model.HolderStore using GORM.
type HolderStorage struct {
	db *gorm.DB
}

// Register creates the holder if it does not exist yet. Registering a known
// subject again returns the stored holder unchanged.
func (s *HolderStorage) Register(add model.AddHolder) (*model.Holder, bool, error) {
	holder := &model.Holder{
		Subject:     add.Subject,
		DisplayName: add.DisplayName,
	}
	created := false
	err := s.db.Transaction(
		func(tx *gorm.DB) error {
			res := tx.Clauses(
				clause.OnConflict{
					Columns:   []clause.Column{{Name: "subject"}},
					DoNothing: true,
				},
			).Create(holder)
			if res.Error != nil {
				return errors.Wrap(res.Error, "holders: create failed")
			}
			created = res.RowsAffected > 0
			if !created {
				if err := tx.Where("subject = ?", add.Subject).First(holder).Error; err != nil {
					return errors.Wrap(err, "holders: get failed")
				}
			}
			return nil
		},
	)
	if err != nil {
		return nil, false, err
	}
	return holder, created, nil
}

// Get retrieves a holder by subject
func (s *HolderStorage) Get(subject string) (*model.Holder, error) {
	var holder model.Holder
	if err := s.db.Where("subject = ?", subject).First(&holder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("holder not found: %s", subject)
		}
		return nil, errors.Wrap(err, "holders: get failed")
	}
	return &holder, nil
}

// List returns all holders
func (s *HolderStorage) List() ([]model.Holder, error) {
	var holders []model.Holder
	if err := s.db.Find(&holders).Error; err != nil {
		return nil, errors.Wrap(err, "holders: list failed")
	}
	return holders, nil
}
