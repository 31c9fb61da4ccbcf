package auth

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverAddress recovers the signer of message from an Ethereum
// personal_sign-style hex signature (65 bytes: r || s || v), the same
// recovery the rest of the retrieval pack's wallet-auth examples perform
// with go-ethereum's crypto package.
func RecoverAddress(message, signatureHex string) (string, error) {
	sig, err := decodeSignature(signatureHex)
	if err != nil {
		return "", err
	}

	hash := personalSignHash(message)

	pubKey, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return "", fmt.Errorf("recover public key: %w", err)
	}

	return strings.ToLower(crypto.PubkeyToAddress(*pubKey).Hex()), nil
}

// VerifyAddress reports whether signature over message was produced by
// address (case-insensitive, 0x-prefixed comparison).
func VerifyAddress(address, message, signatureHex string) (bool, error) {
	recovered, err := RecoverAddress(message, signatureHex)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(recovered, address), nil
}

func decodeSignature(sigHex string) ([]byte, error) {
	sigHex = strings.TrimPrefix(sigHex, "0x")
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	// crypto.SigToPub wants a recovery id of 0/1; wallets commonly produce
	// 27/28 (the Ethereum "v" convention).
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	return sig, nil
}

func personalSignHash(message string) common.Hash {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256Hash([]byte(prefixed))
}
