package server

import (
	"errors"
	"math/rand"
	"strings"
)

const (
	roomCodeLength  = 5
	roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RandomRoomCode returns a fresh 5-character alphanumeric code. Collision
// checking against live rooms is the caller's job.
func RandomRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeCharset[rand.Intn(len(roomCodeCharset))]
	}
	return string(code)
}

func ValidateRoomCode(code string) error {
	if len(code) != roomCodeLength {
		return errors.New("Room code must be exactly 5 characters")
	}

	code = strings.ToUpper(code)
	for _, ch := range code {
		if (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			return errors.New("Room code must contain only letters A-Z and digits 0-9")
		}
	}

	return nil
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(code)
}
