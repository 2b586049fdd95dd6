// Package service implements the business logic of the application.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"quarry/internal/models"
)

const (
	referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeLength  = 6
	// maxReferralCodeAttempts bounds the collision retry loop.
	maxReferralCodeAttempts = 100
)

// randomReferralCode draws a uniform code from the charset.
func randomReferralCode() (string, error) {
	max := big.NewInt(int64(len(referralCodeCharset)))
	code := make([]byte, referralCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw referral code char: %w", err)
		}
		code[i] = referralCodeCharset[n.Int64()]
	}
	return string(code), nil
}

// GenerateReferralCode produces a referral code that does not collide with an
// existing one, retrying up to a fixed cap. The unique index on the column
// remains the final arbiter; the existence check only keeps retries cheap.
func GenerateReferralCode(ctx context.Context, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxReferralCodeAttempts; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", models.NewInternalError(err)
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", models.NewExhaustedRetriesError(
		fmt.Sprintf("Could not find a free referral code in %d attempts", maxReferralCodeAttempts))
}
