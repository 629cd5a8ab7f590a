package care

import (
	"context"
	"encoding/json"

	"github.com/caregate/caregate/internal/session"
	"github.com/caregate/caregate/internal/upstream"
)

// OrganizationCreate is the creation form for an organization.
type OrganizationCreate struct {
	Name       string         `json:"name"`
	OwnerName  string         `json:"ownerName"`
	OwnerPhone upstream.Phone `json:"ownerPhone"`
	Address    string         `json:"address,omitempty"`
}

func (s *Service) ListOrganizations(ctx context.Context, sess *session.Session, query string) ([]Record, error) {
	return s.list(ctx, sess, "/organization/all", "organizations", query)
}

func (s *Service) CreateOrganization(ctx context.Context, sess *session.Session, form OrganizationCreate) error {
	return s.create(ctx, sess, "/organization/create", form)
}

func (s *Service) DeleteOrganization(ctx context.Context, sess *session.Session, id string) error {
	return s.delete(ctx, sess, "/organization/"+id)
}

// OrganizationPermissions fetches the permission set already granted to an
// organization's owning user. Creation dialogs offer it as the superset the
// creator may narrow.
func (s *Service) OrganizationPermissions(ctx context.Context, sess *session.Session, id string) ([]string, error) {
	body, err := s.api.Do(ctx, sess, "/organization/"+id+"/permissions", upstream.Options{})
	if err != nil {
		return nil, err
	}
	items, err := upstream.DecodeList(body, "permissions")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var perm string
		if err := json.Unmarshal(item, &perm); err != nil {
			continue
		}
		out = append(out, perm)
	}
	return out, nil
}
