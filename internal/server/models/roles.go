package models

// Default role catalog seeded by the initial migration.
const (
	RoleCustomer   = "Customer"
	RoleGuest      = "Guest"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
	RoleSystem     = "System"
	RolePartner    = "Partner"
	RoleManager    = "Manager"
	RoleEmployee   = "Employee"
	RolePremium    = "Premium"
)

// DefaultRoles lists every seeded role with its owning user type.
var DefaultRoles = []Role{
	{Name: RoleCustomer, UserType: UserTypeEndUser},
	{Name: RoleGuest, UserType: UserTypeEndUser},
	{Name: RolePremium, UserType: UserTypeEndUser},
	{Name: RolePartner, UserType: UserTypePartner},
	{Name: RoleManager, UserType: UserTypePartner},
	{Name: RoleEmployee, UserType: UserTypePartner},
	{Name: RoleAdmin, UserType: UserTypeAdmin},
	{Name: RoleSuperAdmin, UserType: UserTypeAdmin},
	{Name: RoleSystem, UserType: UserTypeAdmin},
}

// DefaultRole returns the catalog entry for name.
func DefaultRole(name string) (Role, bool) {
	for _, r := range DefaultRoles {
		if r.Name == name {
			return r, true
		}
	}
	return Role{}, false
}
