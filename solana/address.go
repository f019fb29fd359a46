package solana

import (
	"errors"
	"fmt"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	ErrInvalidAddress   = errors.New("invalid solana address")
	ErrInvalidSignature = errors.New("invalid transaction signature")
	ErrUnknownToken     = errors.New("unknown token type")
)

const signatureLength = 64

// TokenType names a balance a wallet can hold.
type TokenType string

const (
	TokenSAMU TokenType = "SAMU"
	TokenSOL  TokenType = "SOL"
)

// ParseTokenType accepts the token name in any case.
func ParseTokenType(s string) (TokenType, error) {
	switch t := TokenType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TokenSAMU, TokenSOL:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownToken, s)
}

// ValidateAddress parses a base58 wallet or mint address.
func ValidateAddress(address string) (solanago.PublicKey, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return solanago.PublicKey{}, ErrInvalidAddress
	}
	pk, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return pk, nil
}

// ValidateSignature checks that s is a base58 encoded 64 byte signature.
func ValidateSignature(s string) (solanago.Signature, error) {
	raw, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(raw) != signatureLength {
		return solanago.Signature{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, signatureLength, len(raw))
	}
	return solanago.SignatureFromBytes(raw), nil
}
