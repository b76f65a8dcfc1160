package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/duration"

	"github.com/vc-anchorage/anchorage/storage"
	"github.com/vc-anchorage/anchorage/storage/model"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	storage.DSNConf
	Pool  storage.PoolConf `yaml:"pool"`
	Debug bool             `yaml:"debug"`
}

func (c *storageConf) validate() error {
	if c.DSN == "" {
		c.DSN = os.Getenv("VC_DB_URL")
	}
	if c.Driver == (storage.DriverSQLite) {
		if c.DataDir == "" && c.DSN == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver: storage.DriverSQLite,
	DSNConf: storage.DSNConf{
		User: "anchorage",
		Host: "localhost",
		DB:   "anchorage",
	},
	Pool: storage.PoolConf{
		MaxOpen:     30,
		MaxIdle:     10,
		MaxLifetime: duration.DurationOption(30 * time.Minute),
	},
	Debug: false,
}

// LoadStorage connects to the configured database and returns the storage
// warehouse for the passed Config
func LoadStorage(c storageConf) (*storage.Storage, error) {
	cfg := storage.Config{
		Driver:    c.Driver,
		DSN:       c.DSN,
		DataDir:   c.DataDir,
		Debug:     c.Debug,
		Pool:      c.Pool,
		UsersHash: Get().Auth.Argon2idParams,
	}
	warehouse, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded storage backend")
	return warehouse, nil
}

// LoadStorageBackends loads and returns the storage backends for the passed Config
func LoadStorageBackends(c storageConf) (model.Backends, error) {
	warehouse, err := LoadStorage(c)
	if err != nil {
		return model.Backends{}, err
	}
	return warehouse.Backends(), nil
}
