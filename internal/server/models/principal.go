// Package models defines server-side data models persisted in the database.
package models

import "time"

// UserType partitions principals into independently authenticated
// populations. Every role belongs to exactly one user type.
type UserType string

const (
	UserTypeEndUser UserType = "enduser"
	UserTypePartner UserType = "partner"
	UserTypeAdmin   UserType = "admin"
)

// ParseUserType accepts the canonical lower-case names as well as the
// "EndUser"/"Partner"/"Admin" spelling used by older clients.
func ParseUserType(s string) (UserType, bool) {
	switch s {
	case "enduser", "EndUser", "end_user":
		return UserTypeEndUser, true
	case "partner", "Partner":
		return UserTypePartner, true
	case "admin", "Admin":
		return UserTypeAdmin, true
	}
	return "", false
}

// Role is a named permission set owned by one user type.
type Role struct {
	Name     string   `db:"name"`
	UserType UserType `db:"user_type"`
}

// Principal is an authenticatable identity. PasswordHash is never serialized.
type Principal struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	FirstName    string     `db:"first_name" json:"firstName"`
	LastName     string     `db:"last_name" json:"lastName"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Active       bool       `db:"is_active" json:"isActive"`
	Roles        []Role     `json:"roles"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// HasUserType reports whether any of the principal's roles belongs to t.
func (p *Principal) HasUserType(t UserType) bool {
	for _, r := range p.Roles {
		if r.UserType == t {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds a role with the given name.
func (p *Principal) HasRole(name string) bool {
	for _, r := range p.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns role names in their stored order.
func (p *Principal) RoleNames() []string {
	names := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		names = append(names, r.Name)
	}
	return names
}
