package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/caregate/caregate/internal/audit"
	"github.com/caregate/caregate/internal/authflow"
	"github.com/caregate/caregate/internal/care"
	"github.com/caregate/caregate/internal/middleware"
	"github.com/caregate/caregate/internal/roles"
	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/validation"
)

type AuthHandler struct {
	flow     *authflow.Flow
	care     *care.Service
	sessions *session.Manager
	guard    *middleware.Guard
	audit    audit.Log
}

func NewAuthHandler(flow *authflow.Flow, careSvc *care.Service, sessions *session.Manager, guard *middleware.Guard, auditLog audit.Log) *AuthHandler {
	return &AuthHandler{
		flow:     flow,
		care:     careSvc,
		sessions: sessions,
		guard:    guard,
		audit:    auditLog,
	}
}

// Login describes the login surface so a client landing on /login knows
// which step it is on.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state := "phone"
	if authflow.StateOf(middleware.SessionFrom(c)) == authflow.StateVerify {
		state = "verify"
	}
	return c.JSON(fiber.Map{
		"message": "sign in with your phone number",
		"modes":   []string{"patient", "staff"},
		"state":   state,
	})
}

type otpRequestBody struct {
	Mode        string `json:"mode" validate:"required"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone" validate:"required"`
}

func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var req otpRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validation.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validation.Message(err),
		})
	}

	mode, err := authflow.ParseMode(req.Mode)
	if err != nil {
		return respondError(c, err)
	}

	sess := middleware.SessionFrom(c)
	if err := h.flow.RequestOTP(c.Context(), sess, mode, req.CountryCode, req.Phone); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "otp sent",
		"state":   "verify",
	})
}

type otpVerifyBody struct {
	OTP      string `json:"otp" validate:"required"`
	Password string `json:"password"`
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req otpVerifyBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validation.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validation.Message(err),
		})
	}

	sess := middleware.SessionFrom(c)
	role, err := h.flow.VerifyOTP(c.Context(), sess, req.OTP, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	h.recordAuth(c, sess, "login")
	return c.JSON(fiber.Map{
		"message":  "signed in",
		"role":     role,
		"redirect": roles.DashboardPath(role),
	})
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	if err := h.flow.ResendOTP(c.Context(), sess); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "otp sent",
		"state":   "verify",
	})
}

// Logout tears the session down on both sides. The upstream call is best
// effort; the local session always dies.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	if sess != nil {
		if sess.IsAuthenticated() {
			if err := h.care.Logout(c.Context(), sess); err != nil {
				log.Printf("upstream logout: %v", err)
			}
			h.recordAuth(c, sess, "logout")
		}
		if err := h.sessions.Destroy(c.Context(), sess); err != nil {
			log.Printf("destroy session %s: %v", sess.ID, err)
		}
	}
	h.guard.ClearCookie(c)
	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (h *AuthHandler) recordAuth(c *fiber.Ctx, sess *session.Session, action string) {
	err := h.audit.Record(c.Context(), &audit.Entry{
		Actor:      sess.Identifier,
		ActorRole:  sess.Role,
		Action:     action,
		EntityType: "session",
		EntityID:   sess.ID,
	})
	if err != nil {
		log.Printf("audit %s: %v", action, err)
	}
}
