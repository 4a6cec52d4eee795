package season

import "time"

// Overrides are the administrator-set values that take precedence over the clock.
type Overrides struct {
	Current      string `json:"current_season,omitempty"`
	Next         string `json:"next_season,omitempty"`
	RenewalDay   int    `json:"renewal_day"`
	RenewalMonth int    `json:"renewal_month"`
}

// Calculator resolves the current and next season against an injected clock.
type Calculator struct {
	now       func() time.Time
	loc       *time.Location
	overrides Overrides
}

type Option func(*Calculator)

func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(c *Calculator) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithOverrides(o Overrides) Option {
	return func(c *Calculator) {
		c.overrides = o
	}
}

func NewCalculator(opts ...Option) Calculator {
	c := Calculator{
		now: time.Now,
		loc: time.UTC,
		overrides: Overrides{
			RenewalDay:   DefaultRenewalDay,
			RenewalMonth: DefaultRenewalMonth,
		},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// With returns a copy of the calculator using the given overrides.
func (c Calculator) With(o Overrides) Calculator {
	c.overrides = o
	return c
}

// Overrides returns the values the calculator currently honours.
func (c Calculator) Overrides() Overrides { return c.overrides }

func (c Calculator) Location() *time.Location { return c.loc }

func (c Calculator) Now() time.Time { return c.now().In(c.loc) }

// Current honours a well-formed override; anything else falls back to the clock.
func (c Calculator) Current() Season {
	if parsed, err := Parse(c.overrides.Current); err == nil {
		return parsed
	}
	return For(c.Now())
}

// Next honours a well-formed override, otherwise it is always Current().Next().
func (c Calculator) Next() Season {
	if parsed, err := Parse(c.overrides.Next); err == nil {
		return parsed
	}
	return c.Current().Next()
}

// RenewalStart is the renewal opening in the current season's end year.
func (c Calculator) RenewalStart() time.Time {
	return RenewalWindowStart(c.Current().EndYear(), c.overrides.RenewalDay, c.overrides.RenewalMonth, c.loc)
}

func (c Calculator) IsRenewalWindowOpen() bool {
	return !c.Now().Before(c.RenewalStart())
}
