package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
)

type CourierService struct {
	store *repository.Store
}

func NewCourierService(store *repository.Store) *CourierService {
	return &CourierService{store: store}
}

// CourierInput describes a courier. A non-empty Password provisions or
// updates the courier's login, using Email as the username.
type CourierInput struct {
	OrganizationID int64  `json:"organization_id,omitempty"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Vehicle        string `json:"vehicle"`
	Active         *bool  `json:"active"`
	Password       string `json:"password,omitempty"`
}

func (in CourierInput) apply(c *models.Courier) error {
	c.Name = strings.TrimSpace(in.Name)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Vehicle = strings.TrimSpace(in.Vehicle)
	if c.Name == "" {
		return apperrors.InvalidArgument("name is required")
	}
	c.Email = ""
	if in.Email != "" {
		email, err := normalizeEmail(in.Email)
		if err != nil {
			return err
		}
		c.Email = email
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if in.Password != "" && c.Email == "" {
		return apperrors.InvalidArgument("email is required to create a courier login")
	}
	return nil
}

func (s *CourierService) scope(ctx context.Context, p auth.Principal, orgID int64) (int64, error) {
	if err := requireRole(p, models.RoleSuperadmin, models.RoleOrgAdmin); err != nil {
		return 0, err
	}
	return resolveOrg(ctx, s.store, p, orgID)
}

func (s *CourierService) List(ctx context.Context, p auth.Principal, orgID int64, active *bool) ([]models.Courier, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return nil, err
	}
	couriers, err := s.store.Couriers.List(ctx, orgID, active)
	if err != nil {
		return nil, apperrors.Internal("list couriers", err)
	}
	return couriers, nil
}

func (s *CourierService) Get(ctx context.Context, p auth.Principal, orgID, id int64) (models.Courier, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return models.Courier{}, err
	}
	c, err := s.store.Couriers.Get(ctx, orgID, id)
	if err != nil {
		return models.Courier{}, notFoundOr(err, "courier")
	}
	return c, nil
}

func (s *CourierService) Create(ctx context.Context, p auth.Principal, orgID int64, in CourierInput) (models.Courier, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return models.Courier{}, err
	}
	c := models.Courier{OrganizationID: orgID, Active: true}
	if err := in.apply(&c); err != nil {
		return models.Courier{}, err
	}

	var id int64
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if in.Password != "" {
			user, err := createUser(ctx, tx, orgID, models.RoleCourier, UserInput{Email: c.Email, Name: c.Name, Password: in.Password})
			if err != nil {
				return err
			}
			c.UserID = &user.ID
		}
		id, err = tx.Couriers.Create(ctx, &c)
		if err != nil {
			return apperrors.Internal("create courier", err)
		}
		return nil
	})
	if err != nil {
		return models.Courier{}, err
	}
	return s.Get(ctx, p, orgID, id)
}

func (s *CourierService) Update(ctx context.Context, p auth.Principal, orgID, id int64, in CourierInput) (models.Courier, error) {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return models.Courier{}, err
	}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		c, err := tx.Couriers.Get(ctx, orgID, id)
		if err != nil {
			return notFoundOr(err, "courier")
		}
		if err := in.apply(&c); err != nil {
			return err
		}

		switch {
		case c.UserID != nil:
			if err := syncCourierLogin(ctx, tx, *c.UserID, c, in.Password); err != nil {
				return err
			}
		case in.Password != "":
			user, err := createUser(ctx, tx, orgID, models.RoleCourier, UserInput{Email: c.Email, Name: c.Name, Password: in.Password})
			if err != nil {
				return err
			}
			c.UserID = &user.ID
		}

		if err := tx.Couriers.Update(ctx, &c); err != nil {
			return notFoundOr(err, "courier")
		}
		return nil
	})
	if err != nil {
		return models.Courier{}, err
	}
	return s.Get(ctx, p, orgID, id)
}

// syncCourierLogin keeps the linked user's email and name in step with the courier.
func syncCourierLogin(ctx context.Context, tx *repository.Store, userID int64, c models.Courier, password string) error {
	if c.Email == "" {
		return apperrors.InvalidArgument("email is required while the courier has a login")
	}
	taken, err := tx.Users.EmailTaken(ctx, c.Email, userID)
	if err != nil {
		return apperrors.Internal("check email", err)
	}
	if taken {
		return apperrors.Conflict("email is already registered")
	}
	var hash string
	if password != "" {
		hash, err = auth.HashPassword(password)
		if err != nil {
			return apperrors.InvalidArgument(err.Error())
		}
	}
	if err := tx.Users.UpdateCredentials(ctx, userID, c.Email, c.Name, hash); err != nil {
		return notFoundOr(err, "courier login")
	}
	return nil
}

// Delete removes the courier and its login. Tasks keep their history and
// lose the courier reference.
func (s *CourierService) Delete(ctx context.Context, p auth.Principal, orgID, id int64) error {
	orgID, err := s.scope(ctx, p, orgID)
	if err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		c, err := tx.Couriers.Get(ctx, orgID, id)
		if err != nil {
			return notFoundOr(err, "courier")
		}
		if err := tx.Couriers.Delete(ctx, orgID, id); err != nil {
			return notFoundOr(err, "courier")
		}
		if c.UserID != nil {
			if err := tx.Users.Delete(ctx, *c.UserID); err != nil && !errors.Is(err, sql.ErrNoRows) {
				return apperrors.Internal("delete courier login", err)
			}
		}
		return nil
	})
}
