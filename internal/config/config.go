package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service's runtime configuration. Every field is bound to
// a single flat environment variable rather than a nested TRADSYS_-style
// namespace: this service ships as one binary with one operator-facing
// surface.
type Config struct {
	DatabaseURL        string
	JWTSecret          string
	ServerPort         int
	JWTIssuer          string
	JWTTTL             time.Duration
	JWTMaxTTL          time.Duration
	WalletChallengeTTL time.Duration
	TraderSecrets      map[string]string
}

var (
	cfg     *Config
	loadErr error
	once    sync.Once
)

const (
	defaultServerPort                = 3030
	defaultJWTTTLSeconds             = 900
	defaultJWTMaxTTLSeconds          = 3600
	defaultWalletChallengeTTLSeconds = 300

	jwtTTLFloorSeconds             = 60
	walletChallengeTTLFloorSeconds = 60
)

// Load reads the service configuration from the environment, falling back to
// defaults for anything optional. It is safe to call more than once; the
// first call wins and subsequent calls return the cached result.
func Load() (*Config, error) {
	once.Do(func() {
		cfg, loadErr = load()
	})
	return cfg, loadErr
}

func load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", defaultServerPort)
	v.SetDefault("JWT_TTL_SECONDS", defaultJWTTTLSeconds)
	v.SetDefault("JWT_MAX_TTL_SECONDS", defaultJWTMaxTTLSeconds)
	v.SetDefault("WALLET_CHALLENGE_TTL_SECONDS", defaultWalletChallengeTTLSeconds)
	v.SetDefault("JWT_ISSUER", "dex-os-api")

	for _, key := range []string{
		"DATABASE_URL", "JWT_SECRET", "SERVER_PORT", "JWT_ISSUER",
		"JWT_TTL_SECONDS", "JWT_MAX_TTL_SECONDS",
		"WALLET_CHALLENGE_TTL_SECONDS", "TRADER_SECRETS",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	c := &Config{
		DatabaseURL: v.GetString("DATABASE_URL"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		ServerPort:  v.GetInt("SERVER_PORT"),
		JWTIssuer:   v.GetString("JWT_ISSUER"),
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	jwtTTLSeconds := v.GetInt("JWT_TTL_SECONDS")
	if jwtTTLSeconds < jwtTTLFloorSeconds {
		jwtTTLSeconds = jwtTTLFloorSeconds
	}
	c.JWTTTL = time.Duration(jwtTTLSeconds) * time.Second

	jwtMaxTTLSeconds := v.GetInt("JWT_MAX_TTL_SECONDS")
	if jwtMaxTTLSeconds < defaultJWTTTLSeconds {
		jwtMaxTTLSeconds = defaultJWTTTLSeconds
	}
	c.JWTMaxTTL = time.Duration(jwtMaxTTLSeconds) * time.Second

	walletChallengeTTLSeconds := v.GetInt("WALLET_CHALLENGE_TTL_SECONDS")
	if walletChallengeTTLSeconds < walletChallengeTTLFloorSeconds {
		walletChallengeTTLSeconds = walletChallengeTTLFloorSeconds
	}
	c.WalletChallengeTTL = time.Duration(walletChallengeTTLSeconds) * time.Second

	if c.JWTTTL > c.JWTMaxTTL {
		return nil, fmt.Errorf("JWT_TTL_SECONDS (%s) exceeds JWT_MAX_TTL_SECONDS (%s)", c.JWTTTL, c.JWTMaxTTL)
	}

	c.TraderSecrets = parseTraderSecrets(v.GetString("TRADER_SECRETS"))

	return c, nil
}

// parseTraderSecrets unpacks a "trader:secret,trader2:secret2" list into a
// lookup map. Malformed entries (no colon, or an empty trader or secret) are
// skipped rather than
// failing startup, since a typo in one pair shouldn't take the whole service
// down.
func parseTraderSecrets(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexByte(pair, ':')
		if idx <= 0 || idx == len(pair)-1 {
			continue
		}
		out[pair[:idx]] = pair[idx+1:]
	}
	return out
}
