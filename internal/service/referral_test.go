package service

import (
	"context"
	"errors"
	"testing"

	"quarry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode_Format(t *testing.T) {
	t.Parallel()

	never := func(_ context.Context, _ string) (bool, error) { return false, nil }

	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode(context.Background(), never)
		require.NoError(t, err)
		require.Len(t, code, referralCodeLength)
		for _, r := range code {
			assert.True(t,
				(r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
				"unexpected character %q in code %q", r, code)
		}
	}
}

func TestGenerateReferralCode_RetriesOnCollision(t *testing.T) {
	t.Parallel()

	calls := 0
	exists := func(_ context.Context, _ string) (bool, error) {
		calls++
		return calls <= 3, nil
	}

	code, err := GenerateReferralCode(context.Background(), exists)
	require.NoError(t, err)
	assert.Len(t, code, referralCodeLength)
	assert.Equal(t, 4, calls)
}

func TestGenerateReferralCode_ExhaustedRetries(t *testing.T) {
	t.Parallel()

	calls := 0
	always := func(_ context.Context, _ string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := GenerateReferralCode(context.Background(), always)
	assertAppErrorCode(t, err, models.CodeExhaustedRetries)
	assert.Equal(t, maxReferralCodeAttempts, calls)
}

func TestGenerateReferralCode_LookupErrorPropagates(t *testing.T) {
	t.Parallel()

	lookupErr := errors.New("store down")
	failing := func(_ context.Context, _ string) (bool, error) { return false, lookupErr }

	_, err := GenerateReferralCode(context.Background(), failing)
	assert.ErrorIs(t, err, lookupErr)
}
