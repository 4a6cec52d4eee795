package season

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForUsesAugustCutover(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		ts := time.Date(2025, month, 15, 12, 0, 0, 0, time.UTC)
		got := For(ts)
		if month >= time.August {
			assert.Equal(t, "2025-2026", got.String(), month.String())
		} else {
			assert.Equal(t, "2024-2025", got.String(), month.String())
		}
	}

	edge := time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-2026", For(edge).String())
	assert.Equal(t, "2024-2025", For(edge.Add(-time.Nanosecond)).String())
}

func TestParseAndNavigation(t *testing.T) {
	s, err := Parse("2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 2025, s.StartYear())
	assert.Equal(t, 2026, s.EndYear())
	assert.Equal(t, "2026-2027", s.Next().String())
	assert.Equal(t, "2024-2025", s.Previous().String())

	for _, bad := range []string{"", "2025", "2025/2026", "25-26", "2025-2026 ", "abcd-efgh"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
		assert.False(t, Valid(bad), bad)
	}
}

func TestSeasonBounds(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	s, _ := Parse("2025-2026")
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, paris), s.Start(paris))
	assert.True(t, s.Contains(time.Date(2026, 7, 31, 23, 59, 0, 0, paris), paris))
	assert.False(t, s.Contains(time.Date(2026, 8, 1, 0, 0, 0, 0, paris), paris))
}

func TestSeasonJSON(t *testing.T) {
	s, _ := Parse("2024-2025")
	raw, err := json.Marshal(map[string]Season{"season": s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"season":"2024-2025"}`, string(raw))

	var decoded struct {
		Season Season `json:"season"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, s, decoded.Season)
	assert.Error(t, json.Unmarshal([]byte(`{"season":"soon"}`), &decoded))
}

func TestRenewalWindowStartClamps(t *testing.T) {
	tests := []struct {
		name       string
		day, month int
		want       time.Time
	}{
		{"defaults", 30, 7, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)},
		{"custom", 15, 6, time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"day zero", 0, 6, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
		{"day too big", 40, 5, time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)},
		{"month invalid", 10, 13, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)},
		{"both invalid", -1, 0, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)},
		{"end of february", 31, 2, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"april has 30 days", 31, 4, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenewalWindowStart(2026, tt.day, tt.month, nil))
		})
	}
	assert.Equal(t, 29, RenewalWindowStart(2028, 31, 2, time.UTC).Day())
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCalculatorCurrentAndNext(t *testing.T) {
	calc := NewCalculator(WithClock(fixedClock(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))))
	assert.Equal(t, "2025-2026", calc.Current().String())
	assert.Equal(t, "2026-2027", calc.Next().String())

	overridden := calc.With(Overrides{Current: "2030-2031"})
	assert.Equal(t, "2030-2031", overridden.Current().String())
	assert.Equal(t, "2031-2032", overridden.Next().String(), "next derives from the parsed current override")

	explicit := calc.With(Overrides{Current: "2030-2031", Next: "2032-2033"})
	assert.Equal(t, "2032-2033", explicit.Next().String())

	malformed := calc.With(Overrides{Current: "next year", Next: "later"})
	assert.Equal(t, "2025-2026", malformed.Current().String())
	assert.Equal(t, "2026-2027", malformed.Next().String())
}

func TestCalculatorUsesLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	// 22:30 UTC on Jul 31 is already Aug 1 in Paris.
	now := time.Date(2025, 7, 31, 22, 30, 0, 0, time.UTC)
	calc := NewCalculator(WithClock(fixedClock(now)), WithLocation(paris))
	assert.Equal(t, "2025-2026", calc.Current().String())
	assert.Equal(t, "2024-2025", NewCalculator(WithClock(fixedClock(now))).Current().String())
}

func TestIsRenewalWindowOpen(t *testing.T) {
	before := NewCalculator(WithClock(fixedClock(time.Date(2026, 7, 29, 23, 0, 0, 0, time.UTC))))
	assert.False(t, before.IsRenewalWindowOpen())

	on := NewCalculator(WithClock(fixedClock(time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC))))
	assert.True(t, on.IsRenewalWindowOpen())

	custom := on.With(Overrides{RenewalDay: 1, RenewalMonth: 8})
	// opens on Aug 1 of the end year, so still shut on Jul 30
	assert.False(t, custom.IsRenewalWindowOpen())

	invalid := before.With(Overrides{RenewalDay: 99, RenewalMonth: 99})
	assert.Equal(t, time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC), invalid.RenewalStart())
}
