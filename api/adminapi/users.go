package adminapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// registerUsers wires handlers using the UsersStore abstraction.
func registerUsers(r fiber.Router, users model.UsersStore) {
	g := r.Group("/users")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			list, err := users.List()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(list)
		},
	)

	type createReq struct {
		Username string `json:"username"`
		Password string `json:"password"`
		UserType string `json:"user_type"`
	}
	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req createReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			if req.Username == "" || req.Password == "" {
				return c.Status(fiber.StatusBadRequest).JSON(
					apimodel.ErrorInvalidRequest("username and password are required"),
				)
			}
			u, err := users.Create(req.Username, req.Password, req.UserType)
			if err != nil {
				var alreadyExistsError model.AlreadyExistsError
				if errors.As(err, &alreadyExistsError) {
					return c.Status(fiber.StatusConflict).JSON(apimodel.ErrorInvalidRequest(err.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.Status(fiber.StatusCreated).JSON(u)
		},
	)

	g.Get(
		"/:username", func(c *fiber.Ctx) error {
			u, err := users.Get(c.Params("username"))
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound(err.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(u)
		},
	)

	type updateReq struct {
		UserType *string `json:"user_type"`
		Password *string `json:"password"`
		Disabled *bool   `json:"disabled"`
	}
	g.Put(
		"/:username", func(c *fiber.Ctx) error {
			var req updateReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			u, err := users.Update(c.Params("username"), req.UserType, req.Password, req.Disabled)
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound(err.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(u)
		},
	)

	g.Delete(
		"/:username", func(c *fiber.Ctx) error {
			if err := users.Delete(c.Params("username")); err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound(err.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.SendStatus(fiber.StatusNoContent)
		},
	)
}
