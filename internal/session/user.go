package session

import "strings"

// AdminRole is the role name granting administrative access.
const AdminRole = "Administrator"

// Role is the user's assigned role in the building.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the cached account record returned by the auth endpoints.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsActive    bool   `json:"is_active,omitempty"`
	IsStaff     bool   `json:"is_staff,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
	DateJoined  string `json:"date_joined,omitempty"`
	LastLogin   string `json:"last_login,omitempty"`
	Role        *Role  `json:"role,omitempty"`
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	return u.Role != nil && u.Role.Name == name
}

// IsAdmin reports whether the user may use administrative screens.
func (u User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser || u.HasRole(AdminRole)
}
