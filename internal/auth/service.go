package auth

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sengkeat-dex/orderbook-svc/internal/config"
	apierrors "github.com/sengkeat-dex/orderbook-svc/pkg/errors"
)

// ServiceParams are the fx-injected dependencies for Service, following the
// teacher's fx.In ServiceParams idiom (internal/auth/service.go).
type ServiceParams struct {
	fx.In

	Logger *zap.Logger
	Config *config.Config
}

// Service is the authentication boundary the submission pipeline depends
// on (§4.7): it issues tokens for the two supported login modes and
// validates bearer tokens on every authenticated request.
type Service struct {
	logger     *zap.Logger
	jwt        *JWTService
	challenge  *ChallengeStore
	secrets    map[string]string
	defaultTTL time.Duration
}

// NewService wires the JWT signer and wallet-challenge store from config.
func NewService(p ServiceParams) (*Service, error) {
	jwtSvc, err := NewJWTService(p.Config.JWTSecret, p.Config.JWTIssuer, p.Config.JWTMaxTTL)
	if err != nil {
		return nil, fmt.Errorf("build jwt service: %w", err)
	}

	return &Service{
		logger:     p.Logger,
		jwt:        jwtSvc,
		challenge:  NewChallengeStore(p.Config.WalletChallengeTTL, p.Logger),
		secrets:    p.Config.TraderSecrets,
		defaultTTL: p.Config.JWTTTL,
	}, nil
}

// IssueSharedSecretToken mints a token for trader after checking secret
// against the configured TRADER_SECRETS pair.
func (s *Service) IssueSharedSecretToken(trader, secret string, ttl time.Duration, audience string) (token string, expiresAt time.Time, err error) {
	if !VerifyTraderSecret(s.secrets, trader, secret) {
		return "", time.Time{}, apierrors.New(apierrors.CodeUnauthorized, "invalid trader credentials")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.jwt.Issue(trader, ttl, audience)
}

// IssueChallenge starts a wallet-login flow for address.
func (s *Service) IssueChallenge(address string) (message string, expiresAt time.Time, err error) {
	entry, exp, err := s.challenge.Issue(address)
	if err != nil {
		return "", time.Time{}, apierrors.Wrap(err, apierrors.CodeInternalError, "failed to issue challenge")
	}
	return entry.Message, exp, nil
}

// IssueWalletToken completes a wallet-login flow: it recovers the signer
// of the outstanding challenge for address, confirms it matches, consumes
// the challenge, and mints a token whose subject is the lowercased address.
func (s *Service) IssueWalletToken(address, signature string, ttl time.Duration, audience string) (token string, expiresAt time.Time, err error) {
	entry, ok := s.challenge.Peek(address)
	if !ok {
		return "", time.Time{}, apierrors.New(apierrors.CodeChallengeMissing, "no outstanding challenge for address")
	}

	verified, err := VerifyAddress(address, entry.Message, signature)
	if err != nil {
		s.logger.Warn("wallet signature recovery failed", zap.String("address", address), zap.Error(err))
		return "", time.Time{}, apierrors.New(apierrors.CodeUnauthorized, "invalid wallet signature")
	}
	if !verified {
		return "", time.Time{}, apierrors.New(apierrors.CodeUnauthorized, "signature does not match address")
	}

	s.challenge.Consume(address)

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.jwt.Issue(strings.ToLower(address), ttl, audience)
}

// ValidateBearer parses and verifies a bearer token, returning its subject.
func (s *Service) ValidateBearer(token string) (string, error) {
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return "", apierrors.Wrap(err, apierrors.CodeUnauthorized, "invalid or expired token")
	}
	return claims.Subject, nil
}
