package care

import (
	"context"

	"github.com/caregate/caregate/internal/session"
)

// ReportCreate is the creation form for a report.
type ReportCreate struct {
	Title          string `json:"title"`
	ConsultationID string `json:"sessionId,omitempty"`
	PatientID      string `json:"patientId,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (s *Service) ListReports(ctx context.Context, sess *session.Session, query string) ([]Record, error) {
	return s.list(ctx, sess, "/report/all", "reports", query)
}

func (s *Service) CreateReport(ctx context.Context, sess *session.Session, form ReportCreate) error {
	return s.create(ctx, sess, "/report/create", form)
}

func (s *Service) DeleteReport(ctx context.Context, sess *session.Session, id string) error {
	return s.delete(ctx, sess, "/report/"+id)
}
