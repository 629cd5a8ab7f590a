package care

import (
	"context"

	"github.com/caregate/caregate/internal/session"
)

// ConsultationCreate schedules a consultation between a patient and a
// doctor. The upstream calls these "sessions"; the gateway uses
// "consultation" to keep them apart from login sessions.
type ConsultationCreate struct {
	PatientID   string `json:"patientId"`
	DoctorID    string `json:"doctorId"`
	DeviceID    string `json:"deviceId,omitempty"`
	ScheduledAt string `json:"scheduledAt,omitempty"`
}

func (s *Service) ListConsultations(ctx context.Context, sess *session.Session, query string) ([]Record, error) {
	return s.list(ctx, sess, "/session/all", "sessions", query)
}

func (s *Service) CreateConsultation(ctx context.Context, sess *session.Session, form ConsultationCreate) error {
	return s.create(ctx, sess, "/session/create", form)
}

func (s *Service) DeleteConsultation(ctx context.Context, sess *session.Session, id string) error {
	return s.delete(ctx, sess, "/session/"+id)
}
