package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandlens/internal/domain"
)

func TestResolveWindowTrailing12RollsOverYear(t *testing.T) {
	now := time.Date(2026, time.January, 15, 10, 30, 0, 0, time.UTC)

	w, err := ResolveWindow(domain.WindowTrailing12, 0, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), w.Months[0])
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), w.Months[11])
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC), w.End)

	// Consecutive months with no gaps.
	for i := 1; i < WindowMonths; i++ {
		assert.Equal(t, w.Months[i-1].AddDate(0, 1, 0), w.Months[i])
	}
}

func TestResolveWindowCalendarYear(t *testing.T) {
	now := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)

	w, err := ResolveWindow(domain.WindowCalendarYear, 2024, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), w.Months[0])
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), w.Months[11])
	assert.Equal(t, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), w.End)
}

func TestResolveWindowRejectsBadInput(t *testing.T) {
	now := time.Now().UTC()

	_, err := ResolveWindow(domain.WindowMode("weekly"), 0, now)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))

	_, err = ResolveWindow(domain.WindowCalendarYear, 12, now)
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestMonthIndex(t *testing.T) {
	now := time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(domain.WindowTrailing12, 0, now)
	require.NoError(t, err)

	assert.Equal(t, 0, w.MonthIndex(time.Date(2025, time.February, 27, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 11, w.MonthIndex(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, w.MonthIndex(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, w.MonthIndex(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)))

	assert.True(t, w.Contains(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)))
}
