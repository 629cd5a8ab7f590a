package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/caregate/caregate/internal/care"
	"github.com/caregate/caregate/internal/middleware"
	"github.com/caregate/caregate/internal/roles"
	"github.com/caregate/caregate/internal/session"
)

type DashboardHandler struct {
	care *care.Service
}

func NewDashboardHandler(careSvc *care.Service) *DashboardHandler {
	return &DashboardHandler{care: careSvc}
}

// Dashboard renders the role's shell: the sidebar navigation plus the
// topbar profile. A user asking for someone else's dashboard is sent to
// their own.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	requested := session.NormalizeRole(c.Params("role"))
	if requested != sess.Role {
		return c.Redirect(roles.DashboardPath(sess.Role), fiber.StatusSeeOther)
	}

	profile, err := h.care.Profile(c.Context(), sess)
	if err != nil {
		// The shell still renders when the profile fetch fails; the topbar
		// just stays empty. A 401 must still force a re-login though.
		if redirectErr := respondUnauthorized(c, err); redirectErr != nil {
			return redirectErr
		}
		log.Printf("profile fetch: %v", err)
		profile = nil
	}

	return c.JSON(fiber.Map{
		"role":       sess.Role,
		"navigation": roles.NavItems(sess.Role),
		"can_create": roles.AllowedToCreate(sess.Role),
		"profile":    profile,
	})
}

// Profile is the standalone topbar fetch.
func (h *DashboardHandler) Profile(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	profile, err := h.care.Profile(c.Context(), sess)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
