// Package policy holds the authorization rules. Every function here is pure:
// callers load the target resource first and pass its owner explicitly.
package policy

import "github.com/qs-lzh/hotel-management/internal/model"

type Action string

const (
	ActionRead       Action = "read"
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionCancel     Action = "cancel"
	ActionSearch     Action = "search"
	ActionChangeRole Action = "change_role"
)

type Resource string

const (
	ResourceUser       Resource = "user"
	ResourceHotel      Resource = "hotel"
	ResourceRoom       Resource = "room"
	ResourceBooking    Resource = "booking"
	ResourceManagement Resource = "management"
)

// Actor is the authenticated caller as seen by the policy.
type Actor struct {
	ID   uint
	Role model.Role
}

func (a Actor) owns(ownerID uint) bool {
	return a.ID != 0 && a.ID == ownerID
}

// Can reports whether actor may perform action on a resource owned by ownerID.
// ownerID is ignored for resources without an owner.
func Can(actor Actor, action Action, resource Resource, ownerID uint) bool {
	if !actor.Role.Includes(model.CapAuthenticated) {
		return false
	}
	if actor.Role.Includes(model.CapManageAll) {
		return true
	}

	switch resource {
	case ResourceBooking:
		switch action {
		case ActionRead, ActionCreate, ActionUpdate, ActionCancel, ActionDelete:
			return actor.owns(ownerID)
		}
	case ResourceUser:
		switch action {
		case ActionRead, ActionUpdate, ActionDelete:
			return actor.owns(ownerID)
		}
	case ResourceRoom:
		if action == ActionRead {
			return true
		}
		switch action {
		case ActionCreate, ActionUpdate, ActionDelete:
			return actor.Role.Includes(model.CapManageRooms)
		}
	case ResourceHotel:
		return action == ActionRead
	}
	return false
}

type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAll
)

// ListScope decides what a listing returns for actor. Listings never deny:
// they narrow to the caller's own records or come back empty.
func ListScope(actor Actor, resource Resource) Scope {
	if !actor.Role.Includes(model.CapAuthenticated) {
		return ScopeNone
	}
	if actor.Role.Includes(model.CapManageAll) {
		return ScopeAll
	}
	switch resource {
	case ResourceHotel, ResourceRoom:
		return ScopeAll
	case ResourceBooking, ResourceUser:
		return ScopeOwn
	}
	return ScopeNone
}
