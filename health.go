package anchorage

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/internal/version"
)

// addHealthEndpoint adds the liveness endpoint
func (reg *Anchorage) addHealthEndpoint() {
	reg.server.Get(
		"/health", func(ctx *fiber.Ctx) error {
			return ctx.JSON(
				fiber.Map{
					"ok":      true,
					"time":    time.Now().UTC().Format(time.RFC3339),
					"version": version.VERSION,
				},
			)
		},
	)
}
