package model

// Role is the capability an authenticated caller acts with.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UserID   string
	Role     Role
	VendorID string
}

// IsAdmin reports whether the actor has administrator capability.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanManage reports whether the actor may drive the order's lifecycle:
// administrators always, vendors only for orders containing their lines.
func (a Actor) CanManage(o *Order) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleVendor:
		return o.HasVendor(a.VendorID)
	}
	return false
}
