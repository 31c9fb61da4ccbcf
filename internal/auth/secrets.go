package auth

import "crypto/subtle"

// VerifyTraderSecret checks presented against the configured secret for
// trader, in constant time — the comparison-timing hardening
// config.rs's handling of TRADER_SECRETS implies even though auth.rs
// doesn't show the comparison explicitly.
func VerifyTraderSecret(secrets map[string]string, trader, presented string) bool {
	expected, ok := secrets[trader]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
