// Package adminapi implements the user administration endpoints. They are
// mounted under /admin and require an authenticated admin user once at least
// one user exists.
package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/authapi"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// Register mounts the admin API routes on r.
func Register(r fiber.Router, users model.UsersStore, authConf authapi.Conf) {
	g := r.Group("/admin", authapi.BearerAuth(users, authConf), adminOnly(users))

	registerUsers(g, users)
}
