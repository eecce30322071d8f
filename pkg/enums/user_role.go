package enums

import "fmt"

// UserRole maps to the user_role enum in Postgres.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleChef     UserRole = "chef"
	UserRoleDriver   UserRole = "driver"
	UserRoleManager  UserRole = "manager"
	UserRoleAdmin    UserRole = "admin"
	UserRoleDemoted  UserRole = "demoted"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleChef,
	UserRoleDriver,
	UserRoleManager,
	UserRoleAdmin,
	UserRoleDemoted,
}

// IsValid reports whether the value matches the canonical user_role enum.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// IsEmployee reports whether the role draws a salary.
func (u UserRole) IsEmployee() bool {
	switch u {
	case UserRoleChef, UserRoleDriver, UserRoleManager, UserRoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role can moderate other users.
func (u UserRole) IsStaff() bool {
	return u == UserRoleManager || u == UserRoleAdmin
}
