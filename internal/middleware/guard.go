package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/caregate/caregate/internal/roles"
	"github.com/caregate/caregate/internal/session"
)

const sessionLocal = "session"

// Guard resolves the session cookie on every request and enforces the
// authentication and role rules for protected routes.
type Guard struct {
	manager *session.Manager
	codec   *session.CookieCodec
}

func NewGuard(manager *session.Manager, codec *session.CookieCodec) *Guard {
	return &Guard{manager: manager, codec: codec}
}

// Attach loads the session named by the cookie, if any, into the request
// context. It never rejects: anonymous requests pass through without a
// session so the login endpoints can create one.
func (g *Guard) Attach() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, err := g.codec.Parse(c.Cookies(g.codec.Name())); err == nil {
			if sess, err := g.manager.Load(c.Context(), id); err == nil {
				c.Locals(sessionLocal, sess)
			}
		}
		return c.Next()
	}
}

// SessionFrom returns the session Attach resolved, or nil.
func SessionFrom(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionLocal).(*session.Session)
	return sess
}

// RequireSession sends unauthenticated requests back to the login route.
func (g *Guard) RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !SessionFrom(c).IsAuthenticated() {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireRoles sends authenticated users whose role is outside the
// allow-list to their own dashboard instead.
func (g *Guard) RequireRoles(allowed ...roles.ID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if !sess.IsAuthenticated() {
			return c.Redirect("/login", fiber.StatusSeeOther)
		}
		for _, role := range allowed {
			if sess.Role == role {
				return c.Next()
			}
		}
		return c.Redirect(roles.DashboardPath(sess.Role), fiber.StatusSeeOther)
	}
}

// EnsureSession creates and attaches an anonymous session when the request
// has none, setting the cookie on the response. The login endpoints sit
// behind it so a pending OTP has somewhere to live.
func (g *Guard) EnsureSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if SessionFrom(c) != nil {
			return c.Next()
		}
		sess, err := g.manager.Begin(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "could not start a session",
			})
		}
		value, err := g.codec.Issue(sess.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "could not start a session",
			})
		}
		c.Cookie(&fiber.Cookie{
			Name:     g.codec.Name(),
			Value:    value,
			MaxAge:   int(g.codec.TTL().Seconds()),
			HTTPOnly: true,
			SameSite: "Lax",
			Path:     "/",
		})
		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

// ClearCookie expires the session cookie (logout).
func (g *Guard) ClearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     g.codec.Name(),
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}
