// Package clock produces "now" in the bot's fixed time zone.
package clock

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

const dateLayout = "2006-01-02"

// Clock wraps a clockwork.Clock pinned to one location.
type Clock struct {
	base clockwork.Clock
	loc  *time.Location
}

// New loads tz and binds it to base. A nil base means the real clock.
func New(base clockwork.Clock, tz string) (*Clock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", tz, err)
	}
	if base == nil {
		base = clockwork.NewRealClock()
	}
	return &Clock{base: base, loc: loc}, nil
}

// Now returns the current instant in the configured zone.
func (c *Clock) Now() time.Time {
	return c.base.Now().In(c.loc)
}

func (c *Clock) Location() *time.Location { return c.loc }

// Clockwork exposes the underlying source so schedulers share it.
func (c *Clock) Clockwork() clockwork.Clock { return c.base }

// Date returns the calendar day of t in the configured zone.
func (c *Clock) Date(t time.Time) string {
	return t.In(c.loc).Format(dateLayout)
}

// Today is Date(Now()).
func (c *Clock) Today() string {
	return c.Date(c.Now())
}

// DaysAgo returns the calendar day n days before today.
func (c *Clock) DaysAgo(n int) string {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day()-n, 0, 0, 0, 0, c.loc).Format(dateLayout)
}

// At returns hour:minute:00 on the calendar day of t.
func (c *Clock) At(t time.Time, hour, minute int) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, c.loc)
}
