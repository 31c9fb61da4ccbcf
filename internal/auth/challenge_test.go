package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChallengeStore_IssueThenPeek(t *testing.T) {
	store := NewChallengeStore(time.Minute, zap.NewNop())

	entry, expiresAt, err := store.Issue("0xABCDEF0000000000000000000000000000000000")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, time.Second)
	assert.Len(t, entry.Nonce, 24)
	assert.True(t, strings.HasPrefix(entry.Message, "Sign in to DEX-OS\nAddress: 0xabcdef"))

	peeked, ok := store.Peek("0xabcdef0000000000000000000000000000000000")
	require.True(t, ok)
	assert.Equal(t, entry.Message, peeked.Message)
}

func TestChallengeStore_PeekDoesNotConsume(t *testing.T) {
	store := NewChallengeStore(time.Minute, zap.NewNop())
	store.Issue("0xaddr")

	_, ok := store.Peek("0xaddr")
	require.True(t, ok)
	_, ok = store.Peek("0xaddr")
	assert.True(t, ok, "Peek must not remove the entry")
}

func TestChallengeStore_ConsumeRemovesEntry(t *testing.T) {
	store := NewChallengeStore(time.Minute, zap.NewNop())
	store.Issue("0xaddr")

	store.Consume("0xaddr")
	_, ok := store.Peek("0xaddr")
	assert.False(t, ok)
}

func TestChallengeStore_PeekUnknownAddress(t *testing.T) {
	store := NewChallengeStore(time.Minute, zap.NewNop())
	_, ok := store.Peek("0xnever-issued")
	assert.False(t, ok)
}
