package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"crypto/sha256"
	"io"
)

// Claims is the token payload the core consumes (§3): Subject carries the
// trader identifier, embedding jwt.RegisteredClaims the way
// internal/hft/middleware/auth.go's Claims does.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService mints and verifies the HMAC-SHA256 bearer tokens the
// submission pipeline's authorization boundary (§4.7) requires.
type JWTService struct {
	signingKey []byte
	issuer     string
	maxTTL     time.Duration
}

// NewJWTService derives the actual HMAC signing key from secret via HKDF
// rather than using the configured secret directly, so a short or
// low-entropy JWT_SECRET still produces a full-width key — the kind of key
// hygiene golang.org/x/crypto exists to make easy.
func NewJWTService(secret, issuer string, maxTTL time.Duration) (*JWTService, error) {
	derived := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("dex-os-jwt-signing-key"))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return &JWTService{signingKey: derived, issuer: issuer, maxTTL: maxTTL}, nil
}

// Issue mints a token for sub, valid for ttl (capped at the service's
// configured maximum). audience, when non-empty, is recorded as the aud
// claim.
func (s *JWTService) Issue(sub string, ttl time.Duration, audience string) (token string, expiresAt time.Time, err error) {
	if ttl <= 0 || ttl > s.maxTTL {
		ttl = s.maxTTL
	}
	now := time.Now()
	expiresAt = now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies token, returning the claims it carries.
func (s *JWTService) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
