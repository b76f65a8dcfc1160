package main

// Deprecated: BadgerStorage only exists to read data written by pre-anchorage
// deployments. Use the GORM storage backend instead.

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// NewBadgerStorage opens the legacy badger database at the passed storage
// location
//
// Deprecated: Use the GORM storage backend instead.
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	storage := &BadgerStorage{Path: path}
	err := storage.Load()
	return storage, err
}

// BadgerStorage is a legacy simple database storage backend
type BadgerStorage struct {
	*badger.DB
	Path   string
	loaded bool
}

// Load loads the database
func (store *BadgerStorage) Load() error {
	if store.loaded {
		return nil
	}
	db, err := badger.Open(badger.DefaultOptions(store.Path))
	if err != nil {
		return err
	}
	store.DB = db

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
		again:
			err := db.RunValueLogGC(0.7)
			if err == nil {
				goto again
			}
		}
	}()
	store.loaded = true
	return nil
}

// Read reads the value for a given key into target
func (store *BadgerStorage) Read(key string, target any) (bool, error) {
	var notFound bool
	err := store.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				notFound = true
				return fmt.Errorf("'%s' not found", key)
			}

			return item.Value(
				func(val []byte) error {
					return decodeLegacy(val, target)
				},
			)
		},
	)
	return !notFound, err
}

// ReadIterator uses the passed iterator function to iterate over all the
// key-value-pairs under the given prefix
func (store *BadgerStorage) ReadIterator(prefix string, do func(k, v []byte) error) error {
	return store.View(
		func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			scanPrefix := []byte(prefix)
			for it.Seek(scanPrefix); it.ValidForPrefix(scanPrefix); it.Next() {
				item := it.Item()
				k := item.Key()
				err := item.Value(
					func(v []byte) error {
						return do(k, v)
					},
				)
				if err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// Credentials implements the legacySource interface
func (store *BadgerStorage) Credentials() (creds []legacyCredential, err error) {
	err = store.ReadIterator(
		"credentials:", func(_, v []byte) error {
			var cred legacyCredential
			if err = decodeLegacy(v, &cred); err != nil {
				return err
			}
			creds = append(creds, cred)
			return nil
		},
	)
	return
}

// Scans implements the legacySource interface
func (store *BadgerStorage) Scans() (scans []legacyScan, err error) {
	err = store.ReadIterator(
		"scans:", func(_, v []byte) error {
			var scan legacyScan
			if err = decodeLegacy(v, &scan); err != nil {
				return err
			}
			scans = append(scans, scan)
			return nil
		},
	)
	return
}

// Issuers implements the legacySource interface
func (store *BadgerStorage) Issuers() (issuers []legacyIssuer, err error) {
	err = store.ReadIterator(
		"issuers:", func(_, v []byte) error {
			var issuer legacyIssuer
			if err = decodeLegacy(v, &issuer); err != nil {
				return err
			}
			issuers = append(issuers, issuer)
			return nil
		},
	)
	return
}

// Holders implements the legacySource interface
func (store *BadgerStorage) Holders() (holders []legacyHolder, err error) {
	err = store.ReadIterator(
		"holders:", func(_, v []byte) error {
			var holder legacyHolder
			if err = decodeLegacy(v, &holder); err != nil {
				return err
			}
			holders = append(holders, holder)
			return nil
		},
	)
	return
}
