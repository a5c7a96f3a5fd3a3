package cache

import (
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// key names definition
const (
	RoomLockKey     = "room:%d:lock"     // short-lived hold while a booking is being created, '%d' is room id
	RevokedTokenKey = "token:%s:revoked" // revoked access token, '%s' is the token id (jti)
)

func MakeRoomLockKey(roomID uint) string {
	return fmt.Sprintf(RoomLockKey, roomID)
}

func MakeRevokedTokenKey(tokenID string) string {
	return fmt.Sprintf(RevokedTokenKey, tokenID)
}

// errors
var (
	ErrRoomLocked = errors.New("room is locked by another booking request")
)

// lua scripts
var unlockScript = redis.NewScript(`
	-- KEYS[1] = room:{room_id}:lock
	-- ARGV[1] = lock token

	-- only the holder may release the lock
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)
