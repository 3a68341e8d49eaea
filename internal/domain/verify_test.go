package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(locationID, sourceID string, inches float64) SnowRecord {
	return SnowRecord{
		LocationID:         locationID,
		SourceID:           sourceID,
		ObservedSnowInches: inches,
	}
}

func TestVerifier_CrossCheck_Agreement(t *testing.T) {
	v, err := NewVerifier(2.0, 0.1)
	require.NoError(t, err)

	result := v.CrossCheck(record("alta", "primary", 8.5), record("alta", "secondary", 9.0))

	assert.True(t, result.Verified)
	assert.True(t, result.CrossChecked())
	assert.Equal(t, 8.5, result.VerifiedSnowInches, "primary value is trusted, not an average")
	assert.InDelta(t, 0.5, result.DisagreementInches, 1e-12)
	require.NotNil(t, result.Secondary)
	assert.Equal(t, "secondary", result.Secondary.SourceID)
}

func TestVerifier_CrossCheck_Disagreement(t *testing.T) {
	v, err := NewVerifier(2.0, 0.1)
	require.NoError(t, err)

	result := v.CrossCheck(record("alta", "primary", 8.5), record("alta", "secondary", 20.0))

	assert.False(t, result.Verified)
	assert.False(t, result.CrossChecked())
	assert.InDelta(t, 11.5, result.DisagreementInches, 1e-12)
}

func TestVerifier_CrossCheck_ExactlyAtTolerance(t *testing.T) {
	v, err := NewVerifier(2.0, 0.1)
	require.NoError(t, err)

	// Tolerance is inclusive: a disagreement of exactly 2.0 still verifies.
	result := v.CrossCheck(record("alta", "primary", 8.0), record("alta", "secondary", 10.0))
	assert.True(t, result.Verified)
}

func TestVerifier_AcceptUnverified(t *testing.T) {
	v, err := NewVerifier(2.0, 0.1)
	require.NoError(t, err)

	result := v.AcceptUnverified(record("alta", "primary", 6.2), SkipSecondaryUnavailable)

	assert.True(t, result.Verified, "single-source data is accepted, not dropped")
	assert.False(t, result.CrossChecked(), "reduced confidence must be disclosed")
	assert.Equal(t, SkipSecondaryUnavailable, result.Skipped)
	assert.Equal(t, 6.2, result.VerifiedSnowInches)
	assert.Nil(t, result.Secondary)
}

func TestVerifier_NeedsSecondary(t *testing.T) {
	v, err := NewVerifier(2.0, 0.1)
	require.NoError(t, err)

	assert.False(t, v.NeedsSecondary(record("alta", "primary", 0)))
	assert.False(t, v.NeedsSecondary(record("alta", "primary", 0.1)), "noise floor is exclusive")
	assert.True(t, v.NeedsSecondary(record("alta", "primary", 0.11)))
}

func TestNewVerifier_RejectsNegativeSettings(t *testing.T) {
	var cfgErr *ConfigurationError

	_, err := NewVerifier(-1, 0.1)
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewVerifier(2, -0.1)
	require.ErrorAs(t, err, &cfgErr)
}
