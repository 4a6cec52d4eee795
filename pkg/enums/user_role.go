package enums

// UserRole is the account role stored in users.role.
type UserRole string

const (
	UserRoleClub  UserRole = "club"
	UserRoleStaff UserRole = "staff"
	UserRoleAdmin UserRole = "admin"
)

var userRoles = newSet("user role", UserRoleClub, UserRoleStaff, UserRoleAdmin)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return userRoles.has(r) }

// IsStaff reports whether the role may use the admin surface.
func (r UserRole) IsStaff() bool {
	return r == UserRoleStaff || r == UserRoleAdmin
}

func ParseUserRole(value string) (UserRole, error) {
	return userRoles.parse(value)
}
