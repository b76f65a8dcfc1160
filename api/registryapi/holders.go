package registryapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// registerHolders wires handlers using the HolderStore abstraction.
func registerHolders(r fiber.Router, holders model.HolderStore, credentials model.CredentialStore) {
	g := r.Group("/holders")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			items, err := holders.List()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(items)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req model.AddHolder
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			if req.Subject == "" {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("subject is required"))
			}
			holder, created, err := holders.Register(req)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if created {
				return c.Status(fiber.StatusCreated).JSON(holder)
			}
			return c.JSON(holder)
		},
	)

	g.Get(
		"/:subject", func(c *fiber.Ctx) error {
			holder, err := holders.Get(c.Params("subject"))
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound("holder not found"))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(holder)
		},
	)

	g.Get(
		"/:subject/credentials", func(c *fiber.Ctx) error {
			creds, err := credentials.ListByHolder(c.Params("subject"))
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(creds)
		},
	)
}
