package care

import (
	"context"

	"github.com/caregate/caregate/internal/session"
)

// DeviceCreate is the registration form for a monitoring device.
type DeviceCreate struct {
	Name           string `json:"name"`
	SerialNumber   string `json:"serialNumber"`
	OrganizationID string `json:"organizationId,omitempty"`
}

func (s *Service) ListDevices(ctx context.Context, sess *session.Session, query string) ([]Record, error) {
	return s.list(ctx, sess, "/device/all", "devices", query)
}

func (s *Service) CreateDevice(ctx context.Context, sess *session.Session, form DeviceCreate) error {
	return s.create(ctx, sess, "/device/create", form)
}

func (s *Service) DeleteDevice(ctx context.Context, sess *session.Session, id string) error {
	return s.delete(ctx, sess, "/device/"+id)
}
