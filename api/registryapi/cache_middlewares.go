package registryapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/internal"
	"github.com/vc-anchorage/anchorage/internal/cache"
)

// trustBundleCacheInvalidationMiddleware clears the cached trust bundle
// snapshots for requests that successfully modify issuer or key state.
// It should be attached only to non-GET routes.
func trustBundleCacheInvalidationMiddleware(c *fiber.Ctx) error {
	if err := c.Next(); err != nil {
		return err
	}
	status := c.Response().StatusCode()
	if status >= 200 && status < 400 {
		_ = cache.Delete(internal.CacheKeyTrustBundle)
		_ = cache.Delete(internal.CacheKeyTrustBundleJWK)
	}
	return nil
}

// revocationListCacheInvalidationMiddleware clears the cached revocation
// list for requests that successfully revoke a credential.
func revocationListCacheInvalidationMiddleware(c *fiber.Ctx) error {
	if err := c.Next(); err != nil {
		return err
	}
	status := c.Response().StatusCode()
	if status >= 200 && status < 400 {
		_ = cache.Delete(internal.CacheKeyRevocationList)
	}
	return nil
}
