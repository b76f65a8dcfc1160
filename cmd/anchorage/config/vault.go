package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// vaultConf configures the key used to seal stored credentials
type vaultConf struct {
	// Key is the base64 encoded sealing key; if empty the VC_STORE_KEY
	// environment variable is used
	Key string `yaml:"key"`
	// KeyFile is read as an alternative to an inline Key
	KeyFile string `yaml:"key_file"`
}

func (c *vaultConf) validate() error {
	if c.Key == "" && c.KeyFile != "" {
		data, err := os.ReadFile(c.KeyFile)
		if err != nil {
			return errors.Wrap(err, "error in vault conf: could not read key_file")
		}
		c.Key = strings.TrimSpace(string(data))
	}
	if c.Key == "" {
		c.Key = os.Getenv("VC_STORE_KEY")
	}
	if c.Key == "" {
		return errors.New("error in vault conf: key or key_file must be specified (or set VC_STORE_KEY)")
	}
	return nil
}
