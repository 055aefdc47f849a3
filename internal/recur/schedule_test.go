package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func collect(s *Schedule) []time.Time {
	var out []time.Time
	for {
		t, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}

func TestParseKind(t *testing.T) {
	for _, raw := range []string{"daily", "weekly", "monthly"} {
		kind, err := ParseKind(raw)
		require.NoError(t, err)
		assert.Equal(t, Kind(raw), kind)
	}

	_, err := ParseKind("every 2nd tuesday")
	assert.Error(t, err)
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name   string
		start  time.Time
		months int
		want   time.Time
	}{
		{"plain advance", date(2024, time.March, 15), 1, date(2024, time.April, 15)},
		{"clamp to leap february", date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{"clamp to plain february", date(2023, time.January, 31), 1, date(2023, time.February, 28)},
		{"no drift past clamp", date(2024, time.January, 31), 2, date(2024, time.March, 31)},
		{"clamp to thirty days", date(2024, time.January, 31), 3, date(2024, time.April, 30)},
		{"year rollover", date(2024, time.November, 30), 3, date(2025, time.February, 28)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AddMonthsClamped(tc.start, tc.months))
		})
	}
}

func TestAddMonthsClampedKeepsClock(t *testing.T) {
	start := time.Date(2024, time.January, 31, 9, 30, 0, 0, time.UTC)
	got := AddMonthsClamped(start, 1)
	assert.Equal(t, time.Date(2024, time.February, 29, 9, 30, 0, 0, time.UTC), got)
}

func TestScheduleMonthlyClamping(t *testing.T) {
	s := New(date(2024, time.January, 31), date(2024, time.April, 30), Monthly)

	want := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	}
	assert.Equal(t, want, collect(s))
}

func TestScheduleDaily(t *testing.T) {
	s := New(date(2024, time.June, 1), date(2024, time.June, 5), Daily)

	got := collect(s)
	require.Len(t, got, 5)
	assert.Equal(t, date(2024, time.June, 1), got[0])
	assert.Equal(t, date(2024, time.June, 5), got[4])
}

func TestScheduleWeekly(t *testing.T) {
	s := New(date(2024, time.June, 3), date(2024, time.June, 30), Weekly)

	want := []time.Time{
		date(2024, time.June, 3),
		date(2024, time.June, 10),
		date(2024, time.June, 17),
		date(2024, time.June, 24),
	}
	assert.Equal(t, want, collect(s))
}

func TestScheduleIsDeterministic(t *testing.T) {
	first := collect(New(date(2024, time.January, 31), date(2025, time.January, 31), Monthly))
	second := collect(New(date(2024, time.January, 31), date(2025, time.January, 31), Monthly))
	assert.Equal(t, first, second)
}

func TestScheduleIsStrictlyIncreasing(t *testing.T) {
	for _, kind := range []Kind{Daily, Weekly, Monthly} {
		got := collect(New(date(2024, time.January, 31), date(2024, time.December, 31), kind))
		require.NotEmpty(t, got)
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i].After(got[i-1]), "kind %s: %v not after %v", kind, got[i], got[i-1])
		}
	}
}

func TestScheduleBoundBeforeAnchor(t *testing.T) {
	s := New(date(2024, time.June, 10), date(2024, time.June, 1), Daily)
	assert.Empty(t, collect(s))
}

func TestScheduleInvalidKind(t *testing.T) {
	s := New(date(2024, time.June, 1), date(2024, time.June, 30), Kind("hourly"))
	assert.Empty(t, collect(s))
}
