package handlers

import (
	"context"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/caregate/caregate/internal/audit"
	"github.com/caregate/caregate/internal/care"
	"github.com/caregate/caregate/internal/middleware"
	"github.com/caregate/caregate/internal/roles"
	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
	"github.com/caregate/caregate/internal/validation"
)

// EntityHandler serves the list/create/delete screens. Every mutating
// action lands in the audit log; failures there are logged and swallowed.
type EntityHandler struct {
	care     *care.Service
	sessions *session.Manager
	audit    audit.Log
}

func NewEntityHandler(careSvc *care.Service, sessions *session.Manager, auditLog audit.Log) *EntityHandler {
	return &EntityHandler{
		care:     careSvc,
		sessions: sessions,
		audit:    auditLog,
	}
}

func (h *EntityHandler) record(ctx context.Context, sess *session.Session, action, entityType, entityID string, actionErr error) {
	entry := &audit.Entry{
		Actor:      sess.Identifier,
		ActorRole:  sess.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if actionErr != nil {
		entry.Outcome = audit.OutcomeError
		entry.Detail = actionErr.Error()
	}
	if err := h.audit.Record(ctx, entry); err != nil {
		log.Printf("audit %s %s: %v", action, entityType, err)
	}
}

func listResponse(c *fiber.Ctx, items []care.Record) error {
	if items == nil {
		items = []care.Record{}
	}
	return c.JSON(fiber.Map{
		"items": items,
		"total": len(items),
	})
}

// deleteThenRefetch issues exactly one delete and, on success, exactly one
// list refetch whose result is returned to the caller. Without confirm=true
// no DELETE is issued at all.
func (h *EntityHandler) deleteThenRefetch(
	c *fiber.Ctx,
	entityType, id string,
	del func(ctx context.Context) error,
	refetch func(ctx context.Context) ([]care.Record, error),
) error {
	if c.Query("confirm") != "true" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "confirmation required",
		})
	}
	sess := middleware.SessionFrom(c)
	ctx := c.Context()

	err := del(ctx)
	h.record(ctx, sess, "delete", entityType, id, err)
	if err != nil {
		return respondError(c, err)
	}

	items, err := refetch(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []care.Record{}
	}
	return c.JSON(fiber.Map{
		"message": entityType + " deleted",
		"items":   items,
		"total":   len(items),
	})
}

// ---- staff entities (two-step OTP creation) ----

type staffCreateBody struct {
	Name           string   `json:"name" validate:"required"`
	CountryCode    string   `json:"country_code"`
	Phone          string   `json:"phone" validate:"required"`
	Password       string   `json:"password" validate:"required"`
	OrganizationID string   `json:"organization_id"`
	DeviceID       string   `json:"device_id"`
	Permissions    []string `json:"permissions"`
}

func (b staffCreateBody) phone() upstream.Phone {
	cc := b.CountryCode
	if cc == "" {
		cc = "+91"
	}
	return upstream.Phone{CountryCode: cc, Number: b.Phone}
}

func (h *EntityHandler) StaffList(role roles.ID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)
		items, err := h.care.ListStaff(c.Context(), sess, role, c.Query("search"))
		if err != nil {
			return respondError(c, err)
		}
		return listResponse(c, items)
	}
}

// StaffCreate starts the two-step creation dialog: the form goes upstream,
// which texts a code to the new account's phone, and the form is parked on
// the session until StaffVerify or StaffCancel.
func (h *EntityHandler) StaffCreate(role roles.ID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req staffCreateBody
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
		if !roles.CanCreate(sess.Role, role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "your role cannot create " + string(role) + " accounts",
			})
		}

		form := care.StaffSignup{
			Name:           req.Name,
			Phone:          req.phone(),
			Password:       req.Password,
			OrganizationID: req.OrganizationID,
			DeviceID:       req.DeviceID,
			Permissions:    req.Permissions,
		}
		if err := h.care.BeginStaffSignup(c.Context(), sess, role, form); err != nil {
			return respondError(c, err)
		}

		pending := &session.PendingSignup{
			Role:        role,
			Phone:       req.Phone,
			CountryCode: form.Phone.CountryCode,
			Fields:      map[string]string{"name": req.Name, "organization_id": req.OrganizationID},
		}
		if err := h.sessions.SetPendingSignup(c.Context(), sess, pending); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "otp sent to the new account's phone",
			"step":    "verify",
		})
	}
}

type staffVerifyBody struct {
	OTP string `json:"otp" validate:"required"`
}

func (h *EntityHandler) StaffVerify(role roles.ID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req staffVerifyBody
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
		pending := sess.Signup
		if pending == nil || pending.Role != role {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "no " + string(role) + " signup in progress",
			})
		}

		phone := upstream.Phone{CountryCode: pending.CountryCode, Number: pending.Phone}
		err := h.care.CompleteStaffSignup(c.Context(), sess, role, phone, req.OTP)
		h.record(c.Context(), sess, "create", string(role), pending.Phone, err)
		if err != nil {
			return respondError(c, err)
		}

		if err := h.sessions.SetPendingSignup(c.Context(), sess, nil); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": string(role) + " created",
		})
	}
}

// StaffCancel discards the pending signup. Nothing is retried and nothing
// partial survives on this side.
func (h *EntityHandler) StaffCancel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)
		if err := h.sessions.SetPendingSignup(c.Context(), sess, nil); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "signup discarded",
		})
	}
}

func (h *EntityHandler) StaffDelete(role roles.ID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := middleware.SessionFrom(c)
		id := c.Params("id")
		return h.deleteThenRefetch(c, string(role), id,
			func(ctx context.Context) error {
				return h.care.DeleteStaff(ctx, sess, role, id)
			},
			func(ctx context.Context) ([]care.Record, error) {
				return h.care.ListStaff(ctx, sess, role, "")
			},
		)
	}
}

// ---- doctors (single-step creation) ----

func (h *EntityHandler) CreateDoctor(c *fiber.Ctx) error {
	var req staffCreateBody
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
	if !roles.CanCreate(sess.Role, roles.Doctor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "your role cannot create doctor accounts",
		})
	}

	err := h.care.CreateDoctor(c.Context(), sess, care.StaffSignup{
		Name:           req.Name,
		Phone:          req.phone(),
		Password:       req.Password,
		OrganizationID: req.OrganizationID,
	})
	h.record(c.Context(), sess, "create", "doctor", req.Phone, err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "doctor created",
	})
}

// ---- organizations ----

type organizationCreateBody struct {
	Name        string `json:"name" validate:"required"`
	OwnerName   string `json:"owner_name" validate:"required"`
	CountryCode string `json:"country_code"`
	OwnerPhone  string `json:"owner_phone" validate:"required"`
	Address     string `json:"address"`
}

func (h *EntityHandler) ListOrganizations(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	items, err := h.care.ListOrganizations(c.Context(), sess, c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return listResponse(c, items)
}

func (h *EntityHandler) CreateOrganization(c *fiber.Ctx) error {
	var req organizationCreateBody
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
	cc := req.CountryCode
	if cc == "" {
		cc = "+91"
	}
	err := h.care.CreateOrganization(c.Context(), sess, care.OrganizationCreate{
		Name:       req.Name,
		OwnerName:  req.OwnerName,
		OwnerPhone: upstream.Phone{CountryCode: cc, Number: req.OwnerPhone},
		Address:    req.Address,
	})
	h.record(c.Context(), sess, "create", "organization", req.Name, err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "organization created",
	})
}

func (h *EntityHandler) DeleteOrganization(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	id := c.Params("id")
	return h.deleteThenRefetch(c, "organization", id,
		func(ctx context.Context) error {
			return h.care.DeleteOrganization(ctx, sess, id)
		},
		func(ctx context.Context) ([]care.Record, error) {
			return h.care.ListOrganizations(ctx, sess, "")
		},
	)
}

// OrganizationPermissions feeds the permission checkboxes of the staff
// creation dialogs: the parent organization's grants are the superset the
// creator may narrow.
func (h *EntityHandler) OrganizationPermissions(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	perms, err := h.care.OrganizationPermissions(c.Context(), sess, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if perms == nil {
		perms = []string{}
	}
	return c.JSON(fiber.Map{
		"permissions": perms,
	})
}

// ---- devices ----

type deviceCreateBody struct {
	Name           string `json:"name" validate:"required"`
	SerialNumber   string `json:"serial_number" validate:"required"`
	OrganizationID string `json:"organization_id"`
}

func (h *EntityHandler) ListDevices(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	items, err := h.care.ListDevices(c.Context(), sess, c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return listResponse(c, items)
}

func (h *EntityHandler) CreateDevice(c *fiber.Ctx) error {
	var req deviceCreateBody
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
	err := h.care.CreateDevice(c.Context(), sess, care.DeviceCreate{
		Name:           req.Name,
		SerialNumber:   req.SerialNumber,
		OrganizationID: req.OrganizationID,
	})
	h.record(c.Context(), sess, "create", "device", req.SerialNumber, err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "device created",
	})
}

func (h *EntityHandler) DeleteDevice(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	id := c.Params("id")
	return h.deleteThenRefetch(c, "device", id,
		func(ctx context.Context) error {
			return h.care.DeleteDevice(ctx, sess, id)
		},
		func(ctx context.Context) ([]care.Record, error) {
			return h.care.ListDevices(ctx, sess, "")
		},
	)
}

// ---- reports ----

type reportCreateBody struct {
	Title          string `json:"title" validate:"required"`
	ConsultationID string `json:"consultation_id"`
	PatientID      string `json:"patient_id"`
	Notes          string `json:"notes"`
}

func (h *EntityHandler) ListReports(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	items, err := h.care.ListReports(c.Context(), sess, c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return listResponse(c, items)
}

func (h *EntityHandler) CreateReport(c *fiber.Ctx) error {
	var req reportCreateBody
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
	err := h.care.CreateReport(c.Context(), sess, care.ReportCreate{
		Title:          req.Title,
		ConsultationID: req.ConsultationID,
		PatientID:      req.PatientID,
		Notes:          req.Notes,
	})
	h.record(c.Context(), sess, "create", "report", req.Title, err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "report created",
	})
}

func (h *EntityHandler) DeleteReport(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	id := c.Params("id")
	return h.deleteThenRefetch(c, "report", id,
		func(ctx context.Context) error {
			return h.care.DeleteReport(ctx, sess, id)
		},
		func(ctx context.Context) ([]care.Record, error) {
			return h.care.ListReports(ctx, sess, "")
		},
	)
}

// ---- consultations ----

type consultationCreateBody struct {
	PatientID   string `json:"patient_id" validate:"required"`
	DoctorID    string `json:"doctor_id" validate:"required"`
	DeviceID    string `json:"device_id"`
	ScheduledAt string `json:"scheduled_at"`
}

func (h *EntityHandler) ListConsultations(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	items, err := h.care.ListConsultations(c.Context(), sess, c.Query("search"))
	if err != nil {
		return respondError(c, err)
	}
	return listResponse(c, items)
}

func (h *EntityHandler) CreateConsultation(c *fiber.Ctx) error {
	var req consultationCreateBody
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
	err := h.care.CreateConsultation(c.Context(), sess, care.ConsultationCreate{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		DeviceID:    req.DeviceID,
		ScheduledAt: req.ScheduledAt,
	})
	h.record(c.Context(), sess, "create", "consultation", req.PatientID, err)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "consultation created",
	})
}

func (h *EntityHandler) DeleteConsultation(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	id := c.Params("id")
	return h.deleteThenRefetch(c, "consultation", id,
		func(ctx context.Context) error {
			return h.care.DeleteConsultation(ctx, sess, id)
		},
		func(ctx context.Context) ([]care.Record, error) {
			return h.care.ListConsultations(ctx, sess, "")
		},
	)
}

// ---- audit ----

func (h *EntityHandler) ListAudit(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	entries, err := h.audit.List(c.Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"entries": entries,
		"total":   len(entries),
	})
}
