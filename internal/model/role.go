package model

import "strings"

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
	RoleUser  Role = "USER"
)

// Capability is something a role may be granted.
type Capability int

const (
	CapAuthenticated Capability = iota
	CapManageRooms
	CapManageAll
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {CapAuthenticated, CapManageRooms, CapManageAll},
	RoleStaff: {CapAuthenticated, CapManageRooms},
	RoleUser:  {CapAuthenticated},
}

// ParseRole accepts any letter case; ok is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

func (r Role) Includes(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}
