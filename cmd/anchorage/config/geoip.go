package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"
)

// geoIPConf configures the optional GeoIP city database used to annotate
// scan locations
type geoIPConf struct {
	DBFile string `yaml:"db_file"`
}

func (c *geoIPConf) validate() error {
	if c.DBFile != "" && !fileutils.FileExists(c.DBFile) {
		return errors.Errorf("geoip database '%s' does not exist", c.DBFile)
	}
	return nil
}
