package session

// UserRole identifies which side of the marketplace a session belongs to.
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleOwner    UserRole = "owner"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleCustomer, RoleOwner:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw claim value into a UserRole, reporting whether the
// value was recognized.
func ParseRole(s string) (UserRole, bool) {
	role := UserRole(s)
	return role, role.IsValid()
}

// PrimaryWorkspace returns the role's main feature route: shop management for
// owners, shop browsing for customers.
func (r UserRole) PrimaryWorkspace() string {
	if r == RoleOwner {
		return RouteShopManagement
	}
	return RouteShopBrowsing
}

// Landing returns the stable page a freshly authenticated user of this role
// ends up on when nothing else (lock, onboarding) intervenes.
func (r UserRole) Landing() string {
	if r == RoleOwner {
		return RouteShopManagement
	}
	return RouteHome
}
