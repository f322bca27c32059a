package models

import "strings"

// Role is the category of a ward user. It decides which mutating routes are permitted.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
	RolePatient Role = "patient"
)

// AllRoles lists every known role.
var AllRoles = []Role{RoleDoctor, RoleNurse, RolePatient}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// User is a registered staff member or patient.
// It maps to the `users` table.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         Role   `db:"role" json:"role"`
}

// AccessCode grants a role at registration time.
type AccessCode struct {
	Code string `db:"code" json:"code"`
	Role Role   `db:"role" json:"role"`
}
