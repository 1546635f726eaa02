package enums

import (
	"fmt"
	"strings"
)

// UserRole is the marketplace role carried in access tokens.
type UserRole string

const (
	UserRoleBuyer    UserRole = "buyer"
	UserRoleSeller   UserRole = "seller"
	UserRoleSupplier UserRole = "supplier"
	UserRoleDriver   UserRole = "driver"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleBuyer,
	UserRoleSeller,
	UserRoleSupplier,
	UserRoleDriver,
	UserRoleAdmin,
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into UserRole, ignoring case.
func ParseUserRole(value string) (UserRole, error) {
	normalized := UserRole(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
