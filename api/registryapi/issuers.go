package registryapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// registerIssuers wires handlers using the IssuerStore abstraction.
func registerIssuers(r fiber.Router, issuers model.IssuerStore) {
	g := r.Group("/issuers")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			items, err := issuers.List()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(items)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req model.AddIssuer
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			if req.Identifier == "" {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("issuer_id is required"))
			}
			issuer, created, err := issuers.Register(req)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if created {
				return c.Status(fiber.StatusCreated).JSON(issuer)
			}
			return c.JSON(issuer)
		},
	)

	g.Post(
		"/keys", trustBundleCacheInvalidationMiddleware, func(c *fiber.Ctx) error {
			var req model.AddIssuerKey
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			if req.Issuer == "" || req.KID == "" {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("issuer_id and kid are required"))
			}
			if req.PublicKeyPEM == "" {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("public_key_pem is required"))
			}
			key, err := issuers.AddKey(req)
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound("issuer not found"))
				}
				var duplicateKeyError model.DuplicateKeyError
				if errors.As(err, &duplicateKeyError) {
					return c.Status(fiber.StatusConflict).JSON(apimodel.ErrorInvalidRequest(duplicateKeyError.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.Status(fiber.StatusCreated).JSON(key)
		},
	)

	g.Get(
		"/keys/revoked", func(c *fiber.Ctx) error {
			kids, err := issuers.RevokedKeyIDs()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			if kids == nil {
				kids = []string{}
			}
			return c.JSON(kids)
		},
	)

	g.Post(
		"/keys/:kid/revoke", trustBundleCacheInvalidationMiddleware, func(c *fiber.Ctx) error {
			var req apimodel.RevokeRequest
			if len(c.Body()) > 0 {
				if err := c.BodyParser(&req); err != nil {
					return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
				}
			}
			already, err := issuers.RevokeKey(c.Params("kid"), req.Reason)
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound("issuer key not found"))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(
				apimodel.RevokeResponse{
					OK:      true,
					Already: already,
				},
			)
		},
	)

	g.Get(
		"/:issuerID", func(c *fiber.Ctx) error {
			issuer, err := issuers.Get(c.Params("issuerID"))
			if err != nil {
				var notFoundError model.NotFoundError
				if errors.As(err, &notFoundError) {
					return c.Status(fiber.StatusNotFound).JSON(apimodel.ErrorNotFound("issuer not found"))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(issuer)
		},
	)
}
