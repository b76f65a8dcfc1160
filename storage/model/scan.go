package model

import (
	"time"
)

// ScanEvent records a single presentation of a credential to a verifier.
// Events reference credentials by token id only, without a foreign key, so
// scans of tokens this registry has never stored are kept as well.
type ScanEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ScannedAt time.Time `json:"scanned_at"`

	TokenID  string `gorm:"index" json:"jti"`
	Verified bool   `json:"verified"`

	// Location is a coarse location derived from the scanner's IP address,
	// empty when no geo database is configured or the IP is unknown.
	Location string `json:"location,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
}

// AddScan is a single scan event as uploaded by a verifier.
type AddScan struct {
	TokenID   string     `json:"jti"`
	Verified  bool       `json:"verified"`
	ScannedAt *time.Time `json:"scanned_at"`
	DeviceID  string     `json:"device_id,omitempty"`
}

// ScanStore is the abstraction used by handlers.
type ScanStore interface {
	Record(scan *ScanEvent) error
	// RecordBatch appends all given events in a single transaction.
	RecordBatch(scans []*ScanEvent) error
	// List returns recorded events, newest first.
	List() ([]ScanEvent, error)
}
