package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeksFor(t *testing.T) {
	tests := []struct {
		name          string
		start         time.Time
		finish        time.Time
		expectedCount int
		expectedLast  time.Time
	}{
		{
			name:          "finish on the last bowling night",
			start:         date(2025, 2, 3),
			finish:        date(2025, 2, 17),
			expectedCount: 3,
			expectedLast:  date(2025, 2, 17),
		},
		{
			name:          "finish mid week",
			start:         date(2025, 2, 3),
			finish:        date(2025, 2, 20),
			expectedCount: 3,
			expectedLast:  date(2025, 2, 17),
		},
		{
			name:          "single day league",
			start:         date(2025, 2, 3),
			finish:        date(2025, 2, 3),
			expectedCount: 1,
			expectedLast:  date(2025, 2, 3),
		},
		{
			name:          "finish before one full stride",
			start:         date(2025, 2, 3),
			finish:        date(2025, 2, 9),
			expectedCount: 1,
			expectedLast:  date(2025, 2, 3),
		},
		{
			name:          "crosses a year boundary",
			start:         date(2024, 12, 18),
			finish:        date(2025, 1, 8),
			expectedCount: 4,
			expectedLast:  date(2025, 1, 8),
		},
		{
			name:          "time of day ignored",
			start:         time.Date(2025, 2, 3, 19, 30, 0, 0, time.UTC),
			finish:        time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC),
			expectedCount: 2,
			expectedLast:  date(2025, 2, 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weeks := WeeksFor(tt.start, tt.finish)
			require.Len(t, weeks, tt.expectedCount)
			assert.Equal(t, 1, weeks[0].Number)
			assert.Equal(t, date(tt.start.Year(), tt.start.Month(), tt.start.Day()), weeks[0].Date)
			assert.Equal(t, tt.expectedLast, weeks[len(weeks)-1].Date)
		})
	}
}

func TestWeekOf(t *testing.T) {
	start := date(2025, 2, 3)
	finish := date(2025, 3, 3)

	assert.Equal(t, 1, WeekOf(start, finish, start))
	assert.Equal(t, 3, WeekOf(start, finish, date(2025, 2, 17)))
	assert.Equal(t, 5, WeekOf(start, finish, finish))
	assert.Equal(t, 0, WeekOf(start, finish, date(2025, 2, 18)), "not a league night")
	assert.Equal(t, 0, WeekOf(start, finish, date(2025, 1, 27)), "before the league")
	assert.Equal(t, 0, WeekOf(start, finish, date(2025, 3, 10)), "after the league")
}

func TestContains(t *testing.T) {
	start := date(2025, 2, 3)
	finish := date(2025, 2, 17)

	assert.False(t, Contains(start, finish, 0))
	assert.True(t, Contains(start, finish, 1))
	assert.True(t, Contains(start, finish, 3))
	assert.False(t, Contains(start, finish, 4))
}

func TestWeeksForProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := date(2020, 1, 1).AddDate(0, 0, rapid.IntRange(0, 3650).Draw(t, "startOffset"))
		length := rapid.IntRange(0, 400).Draw(t, "lengthDays")
		finish := start.AddDate(0, 0, length)

		weeks := WeeksFor(start, finish)

		expected := (length + 1 + DaysPerWeek - 1) / DaysPerWeek
		if len(weeks) != expected {
			t.Fatalf("expected %d weeks, got %d", expected, len(weeks))
		}
		if !weeks[0].Date.Equal(start) {
			t.Fatalf("first week %v does not match start %v", weeks[0].Date, start)
		}
		for i, w := range weeks {
			if w.Number != i+1 {
				t.Fatalf("week %d numbered %d", i+1, w.Number)
			}
			if w.Date.After(finish) {
				t.Fatalf("week %d date %v after finish %v", w.Number, w.Date, finish)
			}
			if i > 0 && !w.Date.After(weeks[i-1].Date) {
				t.Fatalf("dates not strictly increasing at week %d", w.Number)
			}
			if WeekOf(start, finish, w.Date) != w.Number {
				t.Fatalf("WeekOf disagrees for week %d", w.Number)
			}
		}
		if next := DateOf(start, len(weeks)+1); !next.After(finish) {
			t.Fatalf("sequence stopped early: next date %v not after finish %v", next, finish)
		}
	})
}
