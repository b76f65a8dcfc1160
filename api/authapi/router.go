// Package authapi implements user registration and token based login for the
// authenticated registry endpoints.
package authapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// Register mounts the auth endpoints under /auth
func Register(r fiber.Router, users model.UsersStore, conf Conf) {
	if conf.TokenLifetime <= 0 {
		conf.TokenLifetime = defaultTokenLifetime
	}
	g := r.Group("/auth")
	registerRegister(g, users)
	registerToken(g, users, conf)
	registerMe(g, users, conf)
}

func registerRegister(g fiber.Router, users model.UsersStore) {
	type registerReq struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
		UserType string `json:"user_type" form:"user_type"`
	}
	g.Post("/register", func(c *fiber.Ctx) error {
		var req registerReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
		}
		if req.Username == "" || req.Password == "" {
			return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("username and password are required"))
		}
		if _, err := users.Create(req.Username, req.Password, req.UserType); err != nil {
			if _, ok := err.(model.AlreadyExistsError); ok {
				return c.Status(fiber.StatusConflict).JSON(apimodel.ErrorInvalidRequest("username already registered"))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
		}
		return c.JSON(fiber.Map{"message": "user registered successfully"})
	})
}

func registerToken(g fiber.Router, users model.UsersStore, conf Conf) {
	type tokenReq struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	g.Post("/token", func(c *fiber.Ctx) error {
		var req tokenReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
		}
		user, err := users.Authenticate(req.Username, req.Password)
		if err != nil {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(apimodel.ErrorUnauthorized("incorrect username or password"))
		}
		signed, err := issueToken(user, conf)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
		}
		return c.JSON(
			apimodel.Token{
				AccessToken: signed,
				TokenType:   "bearer",
			},
		)
	})
}

func registerMe(g fiber.Router, users model.UsersStore, conf Conf) {
	g.Get(
		"/me", BearerAuth(users, conf), func(c *fiber.Ctx) error {
			username := Username(c)
			if username == "" {
				c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
				return c.Status(fiber.StatusUnauthorized).JSON(apimodel.ErrorUnauthorized("could not validate credentials"))
			}
			u, err := users.Get(username)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(u)
		},
	)
}
