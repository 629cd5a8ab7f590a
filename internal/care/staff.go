package care

import (
	"context"
	"fmt"
	"net/http"

	"github.com/caregate/caregate/internal/roles"
	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
)

// staffListKey maps a staff role to the pluralized wrapper key its list
// endpoint sometimes uses.
var staffListKey = map[roles.ID]string{
	roles.ExecutiveAdmin: "executives",
	roles.ClusterHead:    "clusterHeads",
	roles.UserHead:       "userHeads",
	roles.Nurse:          "nurses",
	roles.Technician:     "technicians",
	roles.Doctor:         "doctors",
}

// ErrUnknownStaffRole is returned for roles without staff endpoints.
var ErrUnknownStaffRole = fmt.Errorf("unknown staff role")

// StaffSignup is the creation form for a staff account. Which fields are
// required varies by role and is enforced at the handler boundary; the
// upstream re-validates everything.
type StaffSignup struct {
	Name           string         `json:"name"`
	Phone          upstream.Phone `json:"phone"`
	Password       string         `json:"password,omitempty"`
	OrganizationID string         `json:"organizationId,omitempty"`
	DeviceID       string         `json:"deviceId,omitempty"`
	Permissions    []string       `json:"permissions,omitempty"`
}

func staffPath(role roles.ID) string {
	return "/" + string(role)
}

// ListStaff fetches the accounts holding the given staff role.
func (s *Service) ListStaff(ctx context.Context, sess *session.Session, role roles.ID, query string) ([]Record, error) {
	key, ok := staffListKey[role]
	if !ok {
		return nil, ErrUnknownStaffRole
	}
	return s.list(ctx, sess, staffPath(role)+"/all", key, query)
}

// BeginStaffSignup submits a staff-creation form. For OTP-verified roles the
// upstream responds by sending a code to the new account's phone; the
// creation is not final until CompleteStaffSignup.
func (s *Service) BeginStaffSignup(ctx context.Context, sess *session.Session, role roles.ID, form StaffSignup) error {
	if _, ok := staffListKey[role]; !ok {
		return ErrUnknownStaffRole
	}
	return s.create(ctx, sess, staffPath(role)+"/create", form)
}

// CompleteStaffSignup confirms a pending staff creation with the code sent
// to the new account's phone.
func (s *Service) CompleteStaffSignup(ctx context.Context, sess *session.Session, role roles.ID, phone upstream.Phone, otp string) error {
	if _, ok := staffListKey[role]; !ok {
		return ErrUnknownStaffRole
	}
	_, err := s.api.Do(ctx, sess, staffPath(role)+"/verify", upstream.Options{
		Method: http.MethodPost,
		Body:   map[string]any{"phone": phone, "otp": otp},
	})
	return err
}

// CreateDoctor creates a doctor account in a single step; doctors have no
// OTP-verify pair upstream.
func (s *Service) CreateDoctor(ctx context.Context, sess *session.Session, form StaffSignup) error {
	return s.create(ctx, sess, "/doctor/create", form)
}

// DeleteStaff removes a staff account.
func (s *Service) DeleteStaff(ctx context.Context, sess *session.Session, role roles.ID, id string) error {
	if _, ok := staffListKey[role]; !ok {
		return ErrUnknownStaffRole
	}
	return s.delete(ctx, sess, staffPath(role)+"/"+id)
}
