package storage

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/vc-anchorage/anchorage/storage/model"
)

// ScanStorage implements model.ScanStore using GORM. Scans are a pure append
// log; token ids are not checked against the credentials table, so scans of
// foreign tokens are recorded as well.
type ScanStorage struct {
	db *gorm.DB
}

// Record appends a single scan event.
func (s *ScanStorage) Record(scan *model.ScanEvent) error {
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now().UTC()
	}
	return errors.Wrap(s.db.Create(scan).Error, "scans: create failed")
}

// RecordBatch appends all given events in one transaction.
func (s *ScanStorage) RecordBatch(scans []*model.ScanEvent) error {
	if len(scans) == 0 {
		return nil
	}
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			for _, scan := range scans {
				if scan.ScannedAt.IsZero() {
					scan.ScannedAt = time.Now().UTC()
				}
				if err := tx.Create(scan).Error; err != nil {
					return errors.Wrap(err, "scans: batch create failed")
				}
			}
			return nil
		},
	)
}

// List returns all recorded scan events, newest first.
func (s *ScanStorage) List() ([]model.ScanEvent, error) {
	var scans []model.ScanEvent
	if err := s.db.Order("scanned_at DESC").Find(&scans).Error; err != nil {
		return nil, errors.Wrap(err, "scans: list failed")
	}
	return scans, nil
}
