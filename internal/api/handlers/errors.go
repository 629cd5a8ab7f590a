package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/caregate/caregate/internal/authflow"
	"github.com/caregate/caregate/internal/care"
	"github.com/caregate/caregate/internal/upstream"
)

// respondError maps every failure class onto the JSON error body the
// front-end shows as a toast. 401s are special: the API client has already
// cleared the session, so the only sensible answer is the login route.
func respondError(c *fiber.Ctx, err error) error {
	var ue *upstream.Error
	if errors.As(err, &ue) {
		switch ue.Status {
		case http.StatusUnauthorized:
			return c.Redirect("/login", fiber.StatusSeeOther)
		case upstream.StatusNetwork:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": ue.Message,
			})
		default:
			return c.Status(ue.Status).JSON(fiber.Map{
				"error": ue.Message,
			})
		}
	}

	switch {
	case errors.Is(err, authflow.ErrPhoneRequired),
		errors.Is(err, authflow.ErrOTPRequired),
		errors.Is(err, authflow.ErrPasswordRequired),
		errors.Is(err, authflow.ErrNoPendingLogin),
		errors.Is(err, authflow.ErrUnknownMode),
		errors.Is(err, care.ErrMissingToken),
		errors.Is(err, care.ErrUnknownStaffRole):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, authflow.ErrResendCooldown):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "something went wrong",
	})
}

// respondUnauthorized redirects to /login when err is an upstream 401 and
// does nothing otherwise. For handlers that tolerate other failures.
func respondUnauthorized(c *fiber.Ctx, err error) error {
	if upstream.IsUnauthorized(err) {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return nil
}
