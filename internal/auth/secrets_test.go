package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyTraderSecret(t *testing.T) {
	secrets := map[string]string{"alice": "correct-secret"}

	assert.True(t, VerifyTraderSecret(secrets, "alice", "correct-secret"))
	assert.False(t, VerifyTraderSecret(secrets, "alice", "wrong-secret"))
	assert.False(t, VerifyTraderSecret(secrets, "bob", "anything"))
}
