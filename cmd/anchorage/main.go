package main

import (
	"os"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vc-anchorage/anchorage"
	"github.com/vc-anchorage/anchorage/api/authapi"
	"github.com/vc-anchorage/anchorage/cmd/anchorage/config"
	"github.com/vc-anchorage/anchorage/internal/cache"
	"github.com/vc-anchorage/anchorage/internal/geoip"
	"github.com/vc-anchorage/anchorage/internal/logger"
	"github.com/vc-anchorage/anchorage/internal/version"
	"github.com/vc-anchorage/anchorage/vault"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	config.Load(configFile)
	c := config.Get()
	logger.Init(c.Logging.Conf)
	log.Info("Loaded Config")
	if redisAddr := c.Caching.RedisAddr; redisAddr != "" {
		if err := cache.UseRedisCache(
			&redis.Options{
				Addr:     redisAddr,
				Username: c.Caching.Username,
				Password: c.Caching.Password,
				DB:       c.Caching.RedisDB,
			},
		); err != nil {
			log.WithError(err).Fatal("could not init redis cache")
		}
		log.Info("Loaded Redis Cache")
	}
	if dbFile := c.GeoIP.DBFile; dbFile != "" {
		if err := geoip.Load(dbFile); err != nil {
			log.WithError(err).Fatal("could not load geoip database")
		}
		log.Info("Loaded GeoIP database")
	}
	sealer, err := vault.NewFromBase64(c.Vault.Key)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Loaded vault key")

	backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}

	reg, err := anchorage.NewAnchorage(
		c.Server,
		authapi.Conf{
			Secret:        []byte(c.Auth.JWTSecret),
			TokenLifetime: c.Auth.TokenLifetime.Duration(),
		},
		sealer,
		backs,
	)
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("version", version.VERSION).Info("Initialized Registry")

	reg.Start()
}
