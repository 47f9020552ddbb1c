package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(3, time.Second)

	assert.True(rl.Allow("conn-1"))
	assert.True(rl.Allow("conn-1"))
	assert.True(rl.Allow("conn-1"))
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(2, time.Second)

	assert.True(rl.Allow("conn-1"))
	assert.True(rl.Allow("conn-1"))
	assert.False(rl.Allow("conn-1"))
}

func TestRateLimiter_ConnectionsAreIndependent(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(1, time.Second)

	assert.True(rl.Allow("conn-1"))
	assert.False(rl.Allow("conn-1"))
	assert.True(rl.Allow("conn-2"))
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(1, 20*time.Millisecond)

	assert.True(rl.Allow("conn-1"))
	assert.False(rl.Allow("conn-1"))

	time.Sleep(30 * time.Millisecond)
	assert.True(rl.Allow("conn-1"))
}

func TestRateLimiter_CleanupDropsIdleConnections(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(5, 10*time.Millisecond)

	rl.Allow("conn-1")
	time.Sleep(20 * time.Millisecond)
	rl.Cleanup()

	rl.mu.Lock()
	_, tracked := rl.requests["conn-1"]
	rl.mu.Unlock()
	assert.False(tracked)
}

func TestRateLimiter_RemoveConnection(t *testing.T) {
	assert := assert.New(t)
	rl := NewRateLimiter(1, time.Minute)

	rl.Allow("conn-1")
	rl.RemoveConnection("conn-1")

	assert.True(rl.Allow("conn-1"), "removal resets the budget")
}

func TestValidateMessageType(t *testing.T) {
	assert := assert.New(t)

	for _, valid := range []string{"ping", "createRoom", "join", "submitWord", "submitClue", "submitVote", "leaveRoom", "kickPlayer"} {
		assert.NoError(ValidateMessageType(valid), "type %s should be accepted", valid)
	}

	err := ValidateMessageType("dance")
	assert.Error(err)
	assert.Contains(err.Error(), "INVALID_MESSAGE_TYPE")
	assert.Contains(err.Error(), "dance")
}

func TestValidateNickname(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(ValidateNickname("Ann"))
	assert.NoError(ValidateNickname("a nickname w space"))

	err := ValidateNickname("")
	assert.Error(err)
	assert.Contains(err.Error(), "NICKNAME_INVALID")

	err = ValidateNickname("   ")
	assert.Error(err)

	err = ValidateNickname("this nickname is far too long")
	assert.Error(err)
	assert.Contains(err.Error(), "max 20 characters")
}
