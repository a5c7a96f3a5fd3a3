package auth

import (
	"time"

	"github.com/qs-lzh/hotel-management/internal/model"
	"github.com/qs-lzh/hotel-management/internal/policy"
)

// Caller is the identity resolved from a request's bearer token. It is passed
// explicitly into every service call.
type Caller struct {
	UserID    uint
	Username  string
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

func (c Caller) Actor() policy.Actor {
	return policy.Actor{ID: c.UserID, Role: c.Role}
}
