package models

import "strings"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// AuthResponse is what the upstream returns on login. It is also the user
// record kept in the session.
type AuthResponse struct {
	Token    string   `json:"token"`
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func (a *AuthResponse) IsAdmin() bool {
	return HasRole(a.Roles, RoleAdmin)
}

type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"createdAt,omitempty"`
}

func (u User) IsAdmin() bool {
	return HasRole(u.Roles, RoleAdmin)
}

type UsersResponse struct {
	Users []User `json:"users"`
}

// UserInput is the body of a user create or edit call. Password is only sent
// when set.
type UserInput struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles"`
}

func RolesFor(isAdmin bool) []string {
	if isAdmin {
		return []string{RoleUser, RoleAdmin}
	}
	return []string{RoleUser}
}

// HasRole compares case-insensitively.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
