// Package anchorage implements a registry for cryptographically signed
// verifiable credentials. It stores submitted credential tokens encrypted at
// rest, tracks their lifecycle up to revocation, records scan events, and
// publishes the trust bundle and revocation list artifacts that verifiers
// consume.
package anchorage

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vc-anchorage/anchorage/api/adminapi"
	"github.com/vc-anchorage/anchorage/api/authapi"
	"github.com/vc-anchorage/anchorage/api/registryapi"
	"github.com/vc-anchorage/anchorage/internal/logger"
	"github.com/vc-anchorage/anchorage/storage"
	"github.com/vc-anchorage/anchorage/storage/model"
	"github.com/vc-anchorage/anchorage/vault"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

// Anchorage is the credential registry server with all its endpoints
type Anchorage struct {
	server     *fiber.App
	serverConf ServerConf
	storages   model.Backends
	sealer     *vault.Vault
}

const vaultCanary = "anchorage-vault-canary"

// checkVaultKey verifies that the configured vault key is the one the stored
// credentials were sealed with. On the very first start a sealed canary value
// is persisted; on later starts it must decrypt again.
func checkVaultKey(sealer *vault.Vault, kv model.KeyValueAccessor) error {
	sealed, err := storage.GetVaultKeyCheck(kv)
	if err != nil {
		return err
	}
	if sealed == "" {
		sealed, err = sealer.Encrypt(vaultCanary)
		if err != nil {
			return err
		}
		return storage.SetVaultKeyCheck(kv, sealed)
	}
	plain, err := sealer.Decrypt(sealed)
	if err != nil || plain != vaultCanary {
		return errors.New("vault key does not match the key the stored credentials were sealed with")
	}
	return nil
}

// NewAnchorage creates a new Anchorage registry server
func NewAnchorage(
	serverConf ServerConf,
	authConf authapi.Conf,
	sealer *vault.Vault,
	storages model.Backends,
) (
	*Anchorage,
	error,
) {
	if err := checkVaultKey(sealer, storages.KV); err != nil {
		return nil, err
	}
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(fiberlogger.New(fiberlogger.Config{Output: logger.AccessWriter()}))
	server.Use(requestid.New())
	server.Use(cors.New())
	reg := &Anchorage{
		server:     server,
		serverConf: serverConf,
		storages:   storages,
		sealer:     sealer,
	}

	// Public endpoints must be registered before the authenticated api so
	// they are matched first and stay open.
	reg.addHealthEndpoint()
	reg.addTrustBundleEndpoint()
	reg.addRevocationListEndpoint()
	authapi.Register(server, storages.Users, authConf)
	adminapi.Register(server, storages.Users, authConf)
	registryapi.Register(server, storages, sealer, authConf)
	return reg, nil
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (reg Anchorage) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(reg.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (reg Anchorage) Listen(addr string) error {
	return reg.server.Listen(addr)
}

func (reg Anchorage) Start() {
	conf := reg.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(reg.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(reg.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
