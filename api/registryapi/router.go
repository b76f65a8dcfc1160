// Package registryapi implements the authenticated registry endpoints for
// holders, issuers and their keys, credentials, and scan events.
package registryapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/authapi"
	"github.com/vc-anchorage/anchorage/storage/model"
	"github.com/vc-anchorage/anchorage/vault"
)

// Register mounts all registry API routes on r. All routes require
// authentication once at least one user exists.
func Register(r fiber.Router, storages model.Backends, sealer *vault.Vault, authConf authapi.Conf) {
	r.Use(authapi.BearerAuth(storages.Users, authConf))

	registerHolders(r, storages.Holders, storages.Credentials)
	registerIssuers(r, storages.Issuers)
	registerCredentials(r, storages.Credentials, sealer)
	registerScans(r, storages.Scans)
}
