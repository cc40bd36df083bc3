package models

import "strings"

// Roles. Legacy documents may still carry "help" or "worker"; both collapse
// to RoleManager on normalization.
const (
	RoleOwner   = "owner"
	RoleProduct = "product"
	RoleManager = "manager"
)

const (
	maxNameLen       = 200
	maxUsernameLen   = 80
	maxPasswordLen   = 200
	maxDepartmentLen = 100
)

// DepartmentUnassigned is where public leads land until someone routes them.
const DepartmentUnassigned = "unassigned"

// User is an admin workspace account. Password may be a legacy plaintext
// value or a bcrypt hash; see pkg/auth.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// NormalizeRole maps any raw role value onto the three live roles.
func NormalizeRole(role string) string {
	switch strings.TrimSpace(strings.ToLower(role)) {
	case RoleOwner:
		return RoleOwner
	case RoleProduct:
		return RoleProduct
	case "help", "worker":
		// Collapsed roles from the previous workspace revision.
		return RoleManager
	default:
		return RoleManager
	}
}

// NormalizeUser coerces a raw user record into canonical shape. Returns nil
// when the record has neither id nor username to identify it by.
func NormalizeUser(raw User) *User {
	u := User{
		ID:         trimMax(raw.ID, 80),
		Username:   strings.ToLower(trimMax(raw.Username, maxUsernameLen)),
		Password:   trimMax(raw.Password, maxPasswordLen),
		Name:       trimMax(raw.Name, maxNameLen),
		Role:       NormalizeRole(raw.Role),
		Department: strings.ToLower(trimMax(raw.Department, maxDepartmentLen)),
	}
	if u.Username == "" && u.ID == "" {
		return nil
	}
	if u.ID == "" {
		u.ID = HashID("usr", u.Username)
	}
	if u.Username == "" {
		u.Username = u.ID
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	if u.Department == "" {
		u.Department = "general"
	}
	return &u
}
