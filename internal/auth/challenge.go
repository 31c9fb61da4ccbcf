package auth

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const nonceLength = 24

// ChallengeEntry is one outstanding wallet-login challenge, keyed by the
// lowercased address it was issued for.
type ChallengeEntry struct {
	Message  string
	Nonce    string
	IssuedAt int64
}

// ChallengeStore holds one-shot wallet-login challenges with a TTL,
// following the original's in-memory per-address cache
// (dex-api/src/challenge.rs's DashMap) but backed by patrickmn/go-cache's
// sweep-on-read-and-timer TTL map instead of a hand-rolled mutex+map.
type ChallengeStore struct {
	cache  *cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewChallengeStore builds a store whose entries expire after ttl.
func NewChallengeStore(ttl time.Duration, logger *zap.Logger) *ChallengeStore {
	return &ChallengeStore{
		cache:  cache.New(ttl, ttl/2),
		ttl:    ttl,
		logger: logger,
	}
}

// Issue creates and stores a new challenge for address, overwriting any
// prior outstanding challenge for the same address.
func (s *ChallengeStore) Issue(address string) (ChallengeEntry, time.Time, error) {
	addr := strings.ToLower(address)
	nonce, err := randomNonce()
	if err != nil {
		return ChallengeEntry{}, time.Time{}, fmt.Errorf("generate nonce: %w", err)
	}

	issuedAt := time.Now()
	entry := ChallengeEntry{
		Nonce:    nonce,
		IssuedAt: issuedAt.Unix(),
	}
	entry.Message = fmt.Sprintf(
		"Sign in to DEX-OS\nAddress: %s\nNonce: %s\nIssued At: %d",
		addr, nonce, entry.IssuedAt,
	)

	s.cache.Set(addr, entry, s.ttl)
	s.logger.Info("issued wallet challenge",
		zap.String("address", addr),
		zap.String("correlation_id", uuid.New().String()))

	return entry, issuedAt.Add(s.ttl), nil
}

// Peek returns the live challenge for address without consuming it.
// go-cache's own expiry sweep means an expired entry is simply absent here.
func (s *ChallengeStore) Peek(address string) (ChallengeEntry, bool) {
	v, ok := s.cache.Get(strings.ToLower(address))
	if !ok {
		return ChallengeEntry{}, false
	}
	return v.(ChallengeEntry), true
}

// Consume removes address's challenge. Callers invoke this only after a
// successful signature verification, making the nonce one-shot on success
// (§9) while letting a failed attempt retry against the same challenge
// until it expires.
func (s *ChallengeStore) Consume(address string) {
	s.cache.Delete(strings.ToLower(address))
}

func randomNonce() (string, error) {
	b := make([]byte, nonceLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, nonceLength)
	for i, v := range b {
		out[i] = nonceAlphabet[int(v)%len(nonceAlphabet)]
	}
	return string(out), nil
}
