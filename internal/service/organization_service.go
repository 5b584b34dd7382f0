package service

import (
	"context"
	"log"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
	"github.com/TWRT/courier-dispatch/internal/storage"
)

type OrganizationService struct {
	store *repository.Store
	blobs *storage.BlobStore
}

func NewOrganizationService(store *repository.Store, blobs *storage.BlobStore) *OrganizationService {
	return &OrganizationService{store: store, blobs: blobs}
}

type OrganizationInput struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

type UserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (in OrganizationInput) toModel() (models.Organization, error) {
	org := models.Organization{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
	}
	if org.Name == "" {
		return models.Organization{}, apperrors.InvalidArgument("name is required")
	}
	if in.ContactEmail != "" {
		email, err := normalizeEmail(in.ContactEmail)
		if err != nil {
			return models.Organization{}, err
		}
		org.ContactEmail = email
	}
	return org, nil
}

func (s *OrganizationService) List(ctx context.Context, p auth.Principal) ([]models.Organization, error) {
	if err := requireRole(p, models.RoleSuperadmin); err != nil {
		return nil, err
	}
	orgs, err := s.store.Organizations.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list organizations", err)
	}
	return orgs, nil
}

// Get lets superadmins read any organization and members read their own.
func (s *OrganizationService) Get(ctx context.Context, p auth.Principal, id int64) (models.Organization, error) {
	if p.Role != models.RoleSuperadmin && p.OrgID() != id {
		return models.Organization{}, apperrors.PermissionDenied("organization is outside your scope")
	}
	org, err := s.store.Organizations.Get(ctx, id)
	if err != nil {
		return models.Organization{}, notFoundOr(err, "organization")
	}
	return org, nil
}

func (s *OrganizationService) Create(ctx context.Context, p auth.Principal, in OrganizationInput) (models.Organization, error) {
	if err := requireRole(p, models.RoleSuperadmin); err != nil {
		return models.Organization{}, err
	}
	org, err := in.toModel()
	if err != nil {
		return models.Organization{}, err
	}
	id, err := s.store.Organizations.Create(ctx, &org)
	if err != nil {
		return models.Organization{}, apperrors.Internal("create organization", err)
	}
	return s.Get(ctx, p, id)
}

func (s *OrganizationService) Update(ctx context.Context, p auth.Principal, id int64, in OrganizationInput) (models.Organization, error) {
	if err := requireRole(p, models.RoleSuperadmin); err != nil {
		return models.Organization{}, err
	}
	org, err := in.toModel()
	if err != nil {
		return models.Organization{}, err
	}
	org.ID = id
	if err := s.store.Organizations.Update(ctx, &org); err != nil {
		return models.Organization{}, notFoundOr(err, "organization")
	}
	return s.Get(ctx, p, id)
}

// Delete removes the organization with everything it owns, including photo files.
func (s *OrganizationService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if err := requireRole(p, models.RoleSuperadmin); err != nil {
		return err
	}
	keys, err := s.store.TaskPhotos.KeysByOrganization(ctx, id)
	if err != nil {
		return apperrors.Internal("list organization photos", err)
	}
	if err := s.store.Organizations.Delete(ctx, id); err != nil {
		return notFoundOr(err, "organization")
	}
	for _, key := range keys {
		if err := s.blobs.Delete(key); err != nil {
			log.Printf("orphaned photo blob key=%s organization_id=%d err=%v", key, id, err)
		}
	}
	return nil
}

func (s *OrganizationService) ListUsers(ctx context.Context, p auth.Principal, orgID int64) ([]models.User, error) {
	if err := requireRole(p, models.RoleSuperadmin, models.RoleOrgAdmin); err != nil {
		return nil, err
	}
	orgID, err := resolveOrg(ctx, s.store, p, orgID)
	if err != nil {
		return nil, err
	}
	users, err := s.store.Users.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, apperrors.Internal("list users", err)
	}
	return users, nil
}

// CreateAdmin provisions an org_admin login for the organization.
func (s *OrganizationService) CreateAdmin(ctx context.Context, p auth.Principal, orgID int64, in UserInput) (models.User, error) {
	if err := requireRole(p, models.RoleSuperadmin); err != nil {
		return models.User{}, err
	}
	orgID, err := resolveOrg(ctx, s.store, p, orgID)
	if err != nil {
		return models.User{}, err
	}
	return createUser(ctx, s.store, orgID, models.RoleOrgAdmin, in)
}

func createUser(ctx context.Context, store *repository.Store, orgID int64, role models.Role, in UserInput) (models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return models.User{}, err
	}
	taken, err := store.Users.EmailTaken(ctx, email, 0)
	if err != nil {
		return models.User{}, apperrors.Internal("check email", err)
	}
	if taken {
		return models.User{}, apperrors.Conflict("email is already registered")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperrors.InvalidArgument(err.Error())
	}
	id, err := store.Users.Create(ctx, &models.User{
		OrganizationID: &orgID,
		Email:          email,
		Name:           strings.TrimSpace(in.Name),
		Role:           role,
		PasswordHash:   hash,
	})
	if err != nil {
		return models.User{}, apperrors.Internal("create user", err)
	}
	user, err := store.Users.Get(ctx, id)
	if err != nil {
		return models.User{}, apperrors.Internal("load user", err)
	}
	return user, nil
}
