// Package service implements the courier dispatch operations on top of the
// repositories, including role checks and organization scoping.
package service

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
)

func requireRole(p auth.Principal, roles ...models.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return apperrors.PermissionDenied("insufficient role")
}

// resolveOrg picks the organization a request acts on. Superadmins must name
// one; everyone else is pinned to their own.
func resolveOrg(ctx context.Context, store *repository.Store, p auth.Principal, requested int64) (int64, error) {
	if p.Role == models.RoleSuperadmin {
		if requested <= 0 {
			return 0, apperrors.InvalidArgument("organization_id is required")
		}
		if _, err := store.Organizations.Get(ctx, requested); err != nil {
			return 0, notFoundOr(err, "organization")
		}
		return requested, nil
	}
	own := p.OrgID()
	if own == 0 {
		return 0, apperrors.PermissionDenied("user has no organization")
	}
	if requested != 0 && requested != own {
		return 0, apperrors.PermissionDenied("organization is outside your scope")
	}
	return own, nil
}

// notFoundOr maps missing rows to not_found and everything else to internal.
func notFoundOr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(what + " not found")
	}
	return apperrors.Internal(what, err)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.InvalidArgument("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.InvalidArgument("email is invalid")
	}
	return email, nil
}

func ptr[T any](v T) *T {
	return &v
}
