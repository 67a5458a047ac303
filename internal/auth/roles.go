package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of back-office roles. Anything outside this set is
// rejected at the boundary; there is no free-form role string anywhere else.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleUser    Role = "user"
)

// Permission keys. The account ones gate this service; the domain ones are
// kept here so the wider back office shares a single source of truth.
const (
	PermAccountsRead  = "accounts.read"
	PermAccountsWrite = "accounts.write"
	PermAccountsAdmin = "accounts.admin"

	PermOrdersManage       = "orders.manage"
	PermReservationsManage = "reservations.manage"
	PermInventoryManage    = "inventory.manage"
)

var rolePermissions = map[Role]map[string]struct{}{
	RoleAdmin: permSet(
		PermAccountsRead, PermAccountsWrite, PermAccountsAdmin,
		PermOrdersManage, PermReservationsManage, PermInventoryManage,
	),
	RoleManager: permSet(
		PermAccountsRead, PermAccountsWrite,
		PermOrdersManage, PermReservationsManage, PermInventoryManage,
	),
	RoleStaff: permSet(
		PermOrdersManage, PermReservationsManage,
	),
	RoleUser: permSet(),
}

func permSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// ParseRole maps a user-supplied string onto the closed role set.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Allowed reports whether the role carries the given permission.
func (r Role) Allowed(permission string) bool {
	perms, ok := rolePermissions[r]
	if !ok {
		return false
	}
	_, ok = perms[permission]
	return ok
}
