package challenge

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Purpose binds a challenge to the operation it authorizes.
type Purpose string

const (
	// PurposeUpdatePhone authorizes a phone-number change.
	PurposeUpdatePhone Purpose = "update-phone"
	// PurposeWithdraw authorizes a cash withdrawal.
	PurposeWithdraw Purpose = "withdraw"
)

var (
	// ErrNotFound indicates no live challenge matches the submitted code.
	// Replay of an already consumed code lands here.
	ErrNotFound = errors.New("challenge not found")

	// ErrExpired indicates the challenge's validity window has passed.
	ErrExpired = errors.New("challenge expired")

	// ErrMismatch indicates the submitted code differs from the issued one.
	ErrMismatch = errors.New("challenge code mismatch")
)

// maxAttempts caps wrong-code submissions before the challenge is destroyed.
const maxAttempts = 5

// codeSpan is the width of the fixed 6-digit code range.
var codeSpan = big.NewInt(1_000_000)

// Store holds pending OTP challenges. At most one challenge is live per
// (customer, purpose) pair; issuing a new one invalidates the prior.
// Verification is single-use.
type Store interface {
	// Issue creates a challenge and returns the clear code for dispatch.
	// The code is never retrievable afterwards; only its hash is stored.
	Issue(ctx context.Context, customerID string, purpose Purpose, ttl time.Duration) (string, error)

	// Verify consumes the challenge matching (purpose, code) and returns the
	// bound customer id. Expiry is evaluated lazily here. Without a customer
	// binding a non-matching code is indistinguishable from an absent
	// challenge, so wrong codes surface as ErrNotFound.
	Verify(ctx context.Context, purpose Purpose, code string) (string, error)

	// VerifyFor consumes the challenge bound to the given customer, with the
	// full failure taxonomy: ErrNotFound when no live challenge exists,
	// ErrExpired past the validity window, ErrMismatch on a wrong code.
	// Wrong-code submissions beyond maxAttempts destroy the challenge.
	VerifyFor(ctx context.Context, customerID string, purpose Purpose, code string) error

	// Revoke discards the live challenge for the pair, if any. Used to roll
	// back issuance when SMS dispatch fails.
	Revoke(ctx context.Context, customerID string, purpose Purpose) error
}

// GenerateCode draws a uniform 6-digit code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// codeDigest keys the lookup index without storing the clear code.
func codeDigest(purpose Purpose, code string) string {
	sum := sha256.Sum256([]byte(string(purpose) + ":" + code))
	return hex.EncodeToString(sum[:])
}
