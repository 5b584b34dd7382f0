package service

import (
	"context"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
)

type ClientService struct {
	store *repository.Store
}

func NewClientService(store *repository.Store) *ClientService {
	return &ClientService{store: store}
}

type ClientInput struct {
	OrganizationID int64  `json:"organization_id,omitempty"`
	Name           string `json:"name"`
	ContactName    string `json:"contact_name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
}

func (in ClientInput) toModel(orgID int64) (models.Client, error) {
	c := models.Client{
		OrganizationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		ContactName:    strings.TrimSpace(in.ContactName),
		Phone:          strings.TrimSpace(in.Phone),
		Address:        strings.TrimSpace(in.Address),
	}
	if c.Name == "" {
		return models.Client{}, apperrors.InvalidArgument("name is required")
	}
	if in.Email != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return models.Client{}, err
		}
		c.Email = email
	}
	return c, nil
}

func (s *ClientService) scope(ctx context.Context, p auth.Principal, orgID int64) (int64, error) {
	if err := requireRole(p, models.RoleSuperadmin, models.RoleOrgAdmin); err != nil {
		return 0, err
	}
	return resolveOrg(ctx, s.store, p, orgID)
}

func (s *ClientService) List(ctx context.Context, p auth.Principal, orgID int64, query string) ([]models.Client, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return nil, err
	}
	clients, err := s.store.Clients.List(ctx, orgID, strings.TrimSpace(query))
	if err != nil {
		return nil, apperrors.Internal("list clients", err)
	}
	return clients, nil
}

func (s *ClientService) Get(ctx context.Context, p auth.Principal, orgID, id int64) (models.Client, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return models.Client{}, err
	}
	c, err := s.store.Clients.Get(ctx, orgID, id)
	if err != nil {
		return models.Client{}, notFoundOr(err, "client")
	}
	return c, nil
}

func (s *ClientService) Create(ctx context.Context, p auth.Principal, orgID int64, in ClientInput) (models.Client, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return models.Client{}, err
	}
	c, err := in.toModel(orgID)
	if err != nil {
		return models.Client{}, err
	}
	id, err := s.store.Clients.Create(ctx, &c)
	if err != nil {
		return models.Client{}, apperrors.Internal("create client", err)
	}
	return s.Get(ctx, p, orgID, id)
}

func (s *ClientService) Update(ctx context.Context, p auth.Principal, orgID, id int64, in ClientInput) (models.Client, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return models.Client{}, err
	}
	c, err := in.toModel(orgID)
	if err != nil {
		return models.Client{}, err
	}
	c.ID = id
	if err := s.store.Clients.Update(ctx, &c); err != nil {
		return models.Client{}, notFoundOr(err, "client")
	}
	return s.Get(ctx, p, orgID, id)
}

// Delete refuses while any task still references the client.
func (s *ClientService) Delete(ctx context.Context, p auth.Principal, orgID, id int64) error {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return err
	}
	if _, err := s.store.Clients.Get(ctx, orgID, id); err != nil {
		return notFoundOr(err, "client")
	}
	n, err := s.store.Clients.CountTasks(ctx, id)
	if err != nil {
		return apperrors.Internal("count client tasks", err)
	}
	if n > 0 {
		return apperrors.Conflict("client still has tasks")
	}
	if err := s.store.Clients.Delete(ctx, orgID, id); err != nil {
		return notFoundOr(err, "client")
	}
	return nil
}
