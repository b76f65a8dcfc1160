// Package geoip resolves client ip addresses to a coarse location using a
// maxmind city database. The database is optional; while none is loaded all
// lookups return the empty string.
package geoip

import (
	"net"
	"strings"
	"sync"

	"github.com/oschwald/maxminddb-golang"
	"github.com/pkg/errors"
)

var (
	mu     sync.RWMutex
	reader *maxminddb.Reader
)

// Load opens the maxmind database at path and uses it for subsequent lookups
func Load(path string) error {
	r, err := maxminddb.Open(path)
	if err != nil {
		return errors.Wrap(err, "geoip: could not open database")
	}
	mu.Lock()
	if reader != nil {
		_ = reader.Close()
	}
	reader = r
	mu.Unlock()
	return nil
}

type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Lookup returns "<city>, <country code>" for the given ip, leaving out
// parts the database does not know. It returns the empty string when no
// database is loaded, the ip does not parse, or nothing is found.
func Lookup(ip string) string {
	mu.RLock()
	r := reader
	mu.RUnlock()
	if r == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	var record cityRecord
	if err := r.Lookup(parsed, &record); err != nil {
		return ""
	}
	var parts []string
	if name := record.City.Names["en"]; name != "" {
		parts = append(parts, name)
	}
	if record.Country.ISOCode != "" {
		parts = append(parts, record.Country.ISOCode)
	}
	return strings.Join(parts, ", ")
}
