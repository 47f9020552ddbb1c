package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"traitor-server/internal/server"
)

func TestRandomRoomCodeFormat(t *testing.T) {
	assert := assert.New(t)

	for i := 0; i < 100; i++ {
		code := server.RandomRoomCode()

		assert.Equal(5, len(code))

		for _, ch := range code {
			alnum := (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
			assert.True(alnum, "unexpected character %q in %s", ch, code)
		}
	}
}

func TestValidateRoomCodeValidCodes(t *testing.T) {
	validCodes := []string{"ABCDE", "GAMES", "A1B2C", "00000", "ZZZZZ"}

	for _, code := range validCodes {
		err := server.ValidateRoomCode(code)
		assert.NoError(t, err, "Code %s should be valid", code)
	}
}

func TestValidateRoomCodeLowercaseAccepted(t *testing.T) {
	// Codes are compared uppercase; validation tolerates lowercase input.
	assert.NoError(t, server.ValidateRoomCode("abcde"))
}

func TestValidateRoomCodeInvalidLength(t *testing.T) {
	invalidCodes := []string{"", "A", "ABCD", "ABCDEF"}

	for _, code := range invalidCodes {
		err := server.ValidateRoomCode(code)
		assert.Error(t, err, "Code %s should be invalid (wrong length)", code)
		assert.Contains(t, err.Error(), "exactly 5 characters")
	}
}

func TestValidateRoomCodeInvalidCharacters(t *testing.T) {
	invalidCodes := []string{
		"AB-CD", // punctuation
		"T@STS", // special chars
		"A BCD", // space
		" ABCD", // leading space
	}

	for _, code := range invalidCodes {
		err := server.ValidateRoomCode(code)
		assert.Error(t, err, "Code %s should be invalid (bad characters)", code)
	}
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "ABC12", server.NormalizeRoomCode("abc12"))
}
