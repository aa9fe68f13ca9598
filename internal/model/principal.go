package model

import "github.com/google/uuid"

type Role string

const (
	RoleLoader     Role = "loader"
	RoleSwitcher   Role = "switcher"
	RoleDispatcher Role = "dispatcher"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
	RoleDriver     Role = "driver"
)

var AllRoles = []Role{RoleLoader, RoleSwitcher, RoleDispatcher, RoleSupervisor, RoleAdmin, RoleDriver}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller resolved from the user store.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   Role
}

func NewPrincipal(user *User) Principal {
	return Principal{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

func (p Principal) IsLoader() bool {
	return p.Role == RoleLoader
}

func (p Principal) IsSwitcher() bool {
	return p.Role == RoleSwitcher
}

func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
