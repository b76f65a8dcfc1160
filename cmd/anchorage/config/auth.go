package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/vc-anchorage/anchorage/storage"
)

// authConf configures token based authentication for the registry api
type authConf struct {
	// JWTSecret signs access tokens; if empty the JWT_SECRET_KEY environment
	// variable is used
	JWTSecret      string                  `yaml:"jwt_secret"`
	TokenLifetime  duration.DurationOption `yaml:"token_lifetime"`
	Argon2idParams storage.Argon2idParams  `yaml:"password_hashing"`
}

var defaultAuthConf = authConf{
	TokenLifetime: duration.DurationOption(30 * time.Minute),
	Argon2idParams: storage.Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      64,
		SaltLen:     32,
	},
}

func (c *authConf) validate() error {
	if c.JWTSecret == "" {
		c.JWTSecret = os.Getenv("JWT_SECRET_KEY")
	}
	if c.JWTSecret == "" {
		return errors.New("error in auth conf: jwt_secret must be specified (or set JWT_SECRET_KEY)")
	}
	return nil
}
