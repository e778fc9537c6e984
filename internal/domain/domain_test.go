package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetValidate(t *testing.T) {
	assert.NoError(t, AccountTarget("Apple").Validate())
	assert.NoError(t, KeywordTarget("electric cars").Validate())

	assert.ErrorIs(t, AccountTarget("").Validate(), ErrInvalidSelector)
	assert.ErrorIs(t, Target{Kind: "hashtag", Value: "x"}.Validate(), ErrInvalidSelector)
	assert.ErrorIs(t, Target{}.Validate(), ErrInvalidSelector)
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "@Apple", AccountTarget("Apple").String())
	assert.Equal(t, "electric cars", KeywordTarget("electric cars").String())
}

func TestNewDateInterval(t *testing.T) {
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 1, 8, 0, 0, 0, 0, time.UTC)

	iv, err := NewDateInterval(start, end)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, iv.Duration())

	_, err = NewDateInterval(end, start)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	empty, err := NewDateInterval(start, start)
	require.NoError(t, err, "empty intervals are valid")
	assert.Zero(t, empty.Duration())
}

func TestDateIntervalContains(t *testing.T) {
	iv, err := NewDateInterval(
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 1, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, iv.Contains(iv.Start), "start is inclusive")
	assert.True(t, iv.Contains(iv.End.Add(-time.Second)))
	assert.False(t, iv.Contains(iv.End), "end is exclusive")
	assert.False(t, iv.Contains(iv.Start.Add(-time.Second)))
}

func TestUpstreamErrorRetryable(t *testing.T) {
	assert.True(t, (&UpstreamError{StatusCode: 429}).Retryable())
	assert.True(t, (&UpstreamError{StatusCode: 503}).Retryable())
	assert.False(t, (&UpstreamError{StatusCode: 400}).Retryable())
	assert.False(t, (&UpstreamError{StatusCode: 404}).Retryable())
}
