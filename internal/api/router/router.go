package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/caregate/caregate/internal/api/handlers"
	"github.com/caregate/caregate/internal/config"
	"github.com/caregate/caregate/internal/middleware"
	"github.com/caregate/caregate/internal/roles"
)

type Router struct {
	app         *fiber.App
	authHandler *handlers.AuthHandler
	entities    *handlers.EntityHandler
	dashboard   *handlers.DashboardHandler
	guard       *middleware.Guard
	rateLimiter *middleware.RateLimiter
}

func NewRouter(
	app *fiber.App,
	authHandler *handlers.AuthHandler,
	entities *handlers.EntityHandler,
	dashboard *handlers.DashboardHandler,
	guard *middleware.Guard,
	rateLimiter *middleware.RateLimiter,
) *Router {
	return &Router{
		app:         app,
		authHandler: authHandler,
		entities:    entities,
		dashboard:   dashboard,
		guard:       guard,
		rateLimiter: rateLimiter,
	}
}

func (r *Router) SetupRoutes() {
	// Session resolution runs on everything.
	r.app.Use(r.guard.Attach())

	r.app.Get("/login", r.authHandler.Login)

	// OTP requests hit the SMS gateway, so they get the tight limit.
	otpLimit := r.rateLimiter.RateLimit(config.RateLimitConfig{
		Enabled: true,
		Limit:   5,
		Window:  time.Minute,
	})

	auth := r.app.Group("/auth", r.guard.EnsureSession())
	auth.Post("/otp/request", otpLimit, r.authHandler.RequestOTP)
	auth.Post("/otp/resend", otpLimit, r.authHandler.ResendOTP)
	auth.Post("/otp/verify", r.authHandler.VerifyOTP)
	auth.Post("/logout", r.authHandler.Logout)

	r.app.Get("/dashboard/:role", r.guard.RequireSession(), r.dashboard.Dashboard)

	api := r.app.Group("/api", r.guard.RequireSession())
	api.Get("/profile", r.dashboard.Profile)

	orgs := api.Group("/organizations", r.guard.RequireRoles(roles.SuperAdmin, roles.ExecutiveAdmin))
	orgs.Get("/", r.entities.ListOrganizations)
	orgs.Post("/", r.entities.CreateOrganization)
	orgs.Get("/:id/permissions", r.entities.OrganizationPermissions)
	orgs.Delete("/:id", r.entities.DeleteOrganization)

	r.staffRoutes(api.Group("/executive-admins",
		r.guard.RequireRoles(roles.SuperAdmin)), roles.ExecutiveAdmin)
	r.staffRoutes(api.Group("/cluster-heads",
		r.guard.RequireRoles(roles.SuperAdmin, roles.ExecutiveAdmin)), roles.ClusterHead)
	r.staffRoutes(api.Group("/user-heads",
		r.guard.RequireRoles(roles.SuperAdmin, roles.ExecutiveAdmin, roles.ClusterHead)), roles.UserHead)
	r.staffRoutes(api.Group("/nurses",
		r.guard.RequireRoles(roles.SuperAdmin, roles.ExecutiveAdmin, roles.ClusterHead, roles.UserHead)), roles.Nurse)
	r.staffRoutes(api.Group("/technicians",
		r.guard.RequireRoles(roles.SuperAdmin, roles.ExecutiveAdmin, roles.ClusterHead, roles.UserHead)), roles.Technician)

	doctors := api.Group("/doctors",
		r.guard.RequireRoles(roles.SuperAdmin, roles.ExecutiveAdmin, roles.UserHead))
	doctors.Get("/", r.entities.StaffList(roles.Doctor))
	doctors.Post("/", r.entities.CreateDoctor)
	doctors.Delete("/:id", r.entities.StaffDelete(roles.Doctor))

	devices := api.Group("/devices",
		r.guard.RequireRoles(roles.SuperAdmin, roles.ExecutiveAdmin, roles.UserHead, roles.Technician))
	devices.Get("/", r.entities.ListDevices)
	devices.Post("/", r.entities.CreateDevice)
	devices.Delete("/:id", r.entities.DeleteDevice)

	reports := api.Group("/reports")
	reports.Get("/", r.entities.ListReports)
	reports.Post("/", r.entities.CreateReport)
	reports.Delete("/:id", r.entities.DeleteReport)

	consultations := api.Group("/consultations")
	consultations.Get("/", r.entities.ListConsultations)
	consultations.Post("/", r.entities.CreateConsultation)
	consultations.Delete("/:id", r.entities.DeleteConsultation)

	api.Get("/audit", r.guard.RequireRoles(roles.SuperAdmin), r.entities.ListAudit)
}

func (r *Router) staffRoutes(group fiber.Router, role roles.ID) {
	group.Get("/", r.entities.StaffList(role))
	group.Post("/", r.entities.StaffCreate(role))
	group.Post("/verify", r.entities.StaffVerify(role))
	group.Post("/cancel", r.entities.StaffCancel())
	group.Delete("/:id", r.entities.StaffDelete(role))
}
