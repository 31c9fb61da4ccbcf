package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_IssueAndValidateRoundTrip(t *testing.T) {
	svc, err := NewJWTService("a-test-secret", "dex-os-api", time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := svc.Issue("alice", 10*time.Minute, "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), expiresAt, time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "dex-os-api", claims.Issuer)
}

func TestJWTService_TTLCappedAtMax(t *testing.T) {
	svc, err := NewJWTService("a-test-secret", "dex-os-api", time.Minute)
	require.NoError(t, err)

	_, expiresAt, err := svc.Issue("alice", time.Hour, "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, time.Second)
}

func TestJWTService_NonPositiveTTLFallsBackToMax(t *testing.T) {
	svc, err := NewJWTService("a-test-secret", "dex-os-api", time.Minute)
	require.NoError(t, err)

	_, expiresAt, err := svc.Issue("alice", 0, "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, time.Second)
}

func TestJWTService_AudienceRecorded(t *testing.T) {
	svc, err := NewJWTService("a-test-secret", "dex-os-api", time.Hour)
	require.NoError(t, err)

	token, _, err := svc.Issue("alice", time.Minute, "integration-tests")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Len(t, claims.Audience, 1)
	assert.Equal(t, "integration-tests", claims.Audience[0])
}

func TestJWTService_RejectsTokenFromDifferentSecret(t *testing.T) {
	svcA, err := NewJWTService("secret-a", "dex-os-api", time.Hour)
	require.NoError(t, err)
	svcB, err := NewJWTService("secret-b", "dex-os-api", time.Hour)
	require.NoError(t, err)

	token, _, err := svcA.Issue("alice", time.Minute, "")
	require.NoError(t, err)

	_, err = svcB.Validate(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTService("a-test-secret", "dex-os-api", time.Hour)
	require.NoError(t, err)

	token, _, err := svc.Issue("alice", -time.Minute, "")
	require.NoError(t, err)
	// A negative ttl is non-positive and so falls back to maxTTL (1h) per
	// Issue's own rule, so re-derive a genuinely expired token by signing
	// directly against a tiny maxTTL service instead.
	_ = token

	shortSvc, err := NewJWTService("a-test-secret", "dex-os-api", time.Millisecond)
	require.NoError(t, err)
	expiredToken, _, err := shortSvc.Issue("alice", time.Millisecond, "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = shortSvc.Validate(expiredToken)
	assert.Error(t, err)
}
