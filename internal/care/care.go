// Package care wraps the care-platform REST API in typed service functions.
// Each entity gets its own file; all of them share the list/create/delete
// plumbing here. Responses are opaque records owned by the upstream — the
// gateway renders them, it does not validate them.
package care

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
)

type Service struct {
	api *upstream.Client
}

func NewService(api *upstream.Client) *Service {
	return &Service{api: api}
}

// Record is an entity as the upstream returned it.
type Record map[string]any

// ID returns the record's identifier under the usual field names.
func (r Record) ID() string {
	for _, key := range []string{"id", "_id", "uuid"} {
		if v, ok := r[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// DisplayName returns the field the list screens search on.
func (r Record) DisplayName() string {
	for _, key := range []string{"name", "fullName", "full_name", "title", "email"} {
		if v, ok := r[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func decodeRecords(items []json.RawMessage) ([]Record, error) {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Filter applies the case-insensitive substring search the list screens run
// over the already-fetched list. It never reaches the upstream.
func Filter(list []Record, query string) []Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	out := make([]Record, 0, len(list))
	for _, rec := range list {
		if strings.Contains(strings.ToLower(rec.DisplayName()), query) {
			out = append(out, rec)
		}
	}
	return out
}

// list fetches an entity collection, normalizes both upstream list shapes
// and applies the local search filter.
func (s *Service) list(ctx context.Context, sess *session.Session, endpoint, pluralKey, query string) ([]Record, error) {
	body, err := s.api.Do(ctx, sess, endpoint, upstream.Options{})
	if err != nil {
		return nil, err
	}
	items, err := upstream.DecodeList(body, pluralKey)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(items)
	if err != nil {
		return nil, err
	}
	return Filter(records, query), nil
}

func (s *Service) create(ctx context.Context, sess *session.Session, endpoint string, payload any) error {
	_, err := s.api.Do(ctx, sess, endpoint, upstream.Options{Method: http.MethodPost, Body: payload})
	return err
}

func (s *Service) delete(ctx context.Context, sess *session.Session, endpoint string) error {
	_, err := s.api.Do(ctx, sess, endpoint, upstream.Options{Method: http.MethodDelete})
	return err
}
