package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/api/authapi"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// adminOnly restricts access to users of the admin type. While no users exist
// all requests are allowed so that a first admin user can be created.
func adminOnly(users model.UsersStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := users.Count()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
		}
		if count == 0 {
			return c.Next()
		}
		username := authapi.Username(c)
		if username == "" {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(apimodel.ErrorUnauthorized("missing credentials"))
		}
		user, err := users.Get(username)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
		}
		if user.Type != model.UserTypeAdmin {
			return c.Status(fiber.StatusForbidden).JSON(apimodel.ErrorInsufficientRights("admin privileges required"))
		}
		return c.Next()
	}
}
