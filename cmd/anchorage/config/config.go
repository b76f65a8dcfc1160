// Package config loads and provides the registry configuration.
package config

import (
	"os"
	"reflect"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/vc-anchorage/anchorage"
)

// Config holds the complete registry configuration
type Config struct {
	Server  anchorage.ServerConf `yaml:"server"`
	Storage storageConf          `yaml:"storage"`
	Logging loggingConf          `yaml:"logging"`
	Caching cachingConf          `yaml:"caching"`
	Auth    authConf             `yaml:"auth"`
	Vault   vaultConf            `yaml:"vault"`
	GeoIP   geoIPConf            `yaml:"geoip"`
}

type configValidator interface {
	validate() error
}

var conf *Config

// Get returns the loaded Config
func Get() *Config {
	return conf
}

var possibleConfigLocations = []string{
	"config.yaml",
	"/etc/anchorage/config.yaml",
}

func defaultConfig() *Config {
	return &Config{
		Server: anchorage.ServerConf{
			Port: 8000,
		},
		Storage: defaultStorageConf,
		Logging: defaultLoggingConf,
		Auth:    defaultAuthConf,
	}
}

// Load loads the configuration from the passed file; if no file is passed,
// the usual config locations are tried.
func Load(file string) {
	if file == "" {
		for _, loc := range possibleConfigLocations {
			if fileutils.FileExists(loc) {
				file = loc
				break
			}
		}
	}
	if file == "" {
		log.Fatal("could not find a config file in any of the possible locations")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		log.WithError(err).WithField("file", file).Fatal("could not read config file")
	}
	conf = defaultConfig()
	if err = yaml.Unmarshal(data, conf); err != nil {
		log.WithError(err).WithField("file", file).Fatal("could not parse config file")
	}
	if err = conf.validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
}

func (c *Config) validate() error {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		fieldVal := v.Field(i)

		// Get addressable pointer to field if possible
		if fieldVal.CanAddr() {
			ptr := fieldVal.Addr().Interface()

			if validator, ok := ptr.(configValidator); ok {
				if err := validator.validate(); err != nil {
					return errors.Errorf("validation failed for field '%s': %s", t.Field(i).Name, err.Error())
				}
			}
		}
	}
	return nil
}
