package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowStart(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	_, windowed, err := WindowStart(TimeframeAll, now)
	require.NoError(t, err)
	assert.False(t, windowed)

	since, windowed, err := WindowStart(TimeframeWeek, now)
	require.NoError(t, err)
	assert.True(t, windowed)
	assert.True(t, since.Before(now.AddDate(0, 0, -6)), "six-day-old entries are inside the window")
	assert.True(t, now.AddDate(0, 0, -8).Before(since), "eight-day-old entries fall outside the window")

	since, windowed, err = WindowStart(TimeframeMonth, now)
	require.NoError(t, err)
	assert.True(t, windowed)
	assert.Equal(t, now.AddDate(0, 0, -30), since)

	_, _, err = WindowStart("fortnight", now)
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindInvalidInput, se.Kind)
}

func TestPages(t *testing.T) {
	assert.Equal(t, 3, Pages(23, 10))
	assert.Equal(t, 1, Pages(10, 10))
	assert.Equal(t, 2, Pages(11, 10))
	assert.Equal(t, 0, Pages(0, 10))
	assert.Equal(t, 0, Pages(5, 0))
}
