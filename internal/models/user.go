package models

import "time"

type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleOrgAdmin   Role = "org_admin"
	RoleCourier    Role = "courier"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleOrgAdmin, RoleCourier:
		return true
	}
	return false
}

// User is an account that can log in. Superadmins have no organization.
type User struct {
	ID             int64     `json:"id"`
	OrganizationID *int64    `json:"organization_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	PasswordHash   string    `json:"-"`
	CourierID      *int64    `json:"courier_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
