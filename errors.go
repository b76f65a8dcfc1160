package anchorage

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vc-anchorage/anchorage/api/apimodel"
)

// handleError renders errors that escape the handlers with the common error
// json body.
func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	switch code {
	case fiber.StatusNotFound:
		return ctx.Status(code).JSON(apimodel.ErrorNotFound("the requested resource does not exist"))
	case fiber.StatusMethodNotAllowed:
		return ctx.Status(code).JSON(apimodel.ErrorInvalidRequest("method not allowed"))
	default:
		return ctx.Status(code).JSON(apimodel.ErrorServerError(err.Error()))
	}
}
