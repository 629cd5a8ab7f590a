package care

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
)

// Profile fetches the current user's profile record (the topbar fetch).
func (s *Service) Profile(ctx context.Context, sess *session.Session) (Record, error) {
	body, err := s.api.Do(ctx, sess, "/user/profile", upstream.Options{})
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return rec, nil
}
