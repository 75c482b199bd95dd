package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronExpression_Fields(t *testing.T) {
	ce, err := ParseCronExpression("*/15 3 1 * 0")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 15, 30, 45}, ce.minutes)
	assert.Equal(t, []int{3}, ce.hours)
	assert.Equal(t, []int{1}, ce.days)
	assert.Equal(t, []int{0}, ce.weekdays)
}

func TestParseCronExpression_Invalid(t *testing.T) {
	_, err := ParseCronExpression("* * *")
	assert.Error(t, err)

	_, err = ParseCronExpression("61 * * * *")
	assert.Error(t, err)

	_, err = ParseCronExpression("*/0 * * * *")
	assert.Error(t, err)
}

func TestCronExpression_Next(t *testing.T) {
	ce := MustParseCronExpression("0 3 * * *")

	// 2026-03-10 is a Tuesday.
	from := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), ce.Next(from))

	// Past today's slot rolls to tomorrow.
	from = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), ce.Next(from))
}

func TestCronExpression_NextEveryFiveMinutes(t *testing.T) {
	ce := MustParseCronExpression(Every5Minutes)

	from := time.Date(2026, 3, 10, 12, 2, 30, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC), ce.Next(from))
}

func TestIntervalSchedule_Next(t *testing.T) {
	s := NewIntervalSchedule(10 * time.Minute)
	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(10*time.Minute), s.Next(from))
	assert.Equal(t, "@every 10m0s", s.String())
}
