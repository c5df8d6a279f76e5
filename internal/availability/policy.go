package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MinAdvanceFloor blocks today and tomorrow no matter how the policy is configured.
	MinAdvanceFloor        = 2
	DefaultMaxOrdersPerDay = 3
	DefaultTimezone        = "America/New_York"
)

// WeekdaySet is a bitmask of time.Weekday values.
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Days lists the members from Sunday to Saturday.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays reads a comma separated list such as "sunday,monday" or "sun, mon".
func ParseWeekdays(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		d, ok := weekdayNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown weekday %q", part)
		}
		set |= NewWeekdaySet(d)
	}
	return set, nil
}

// Policy is the operating calendar of the bakery. It is built once at startup
// and only read afterwards.
type Policy struct {
	ClosedWeekdays     WeekdaySet
	MinimumAdvanceDays int
	MaxOrdersPerDay    int
	Location           *time.Location
}

// DefaultPolicy mirrors the storefront's published hours: closed Sundays and
// Mondays, two days of notice, three orders per day.
func DefaultPolicy() Policy {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return Policy{
		ClosedWeekdays:     NewWeekdaySet(time.Sunday, time.Monday),
		MinimumAdvanceDays: MinAdvanceFloor,
		MaxOrdersPerDay:    DefaultMaxOrdersPerDay,
		Location:           loc,
	}
}

// AdvanceDays is the lead time actually enforced.
func (p Policy) AdvanceDays() int {
	return max(p.MinimumAdvanceDays, MinAdvanceFloor)
}

// WithAdvanceDays returns a copy of p with a different minimum lead time.
func (p Policy) WithAdvanceDays(days int) Policy {
	p.MinimumAdvanceDays = days
	return p
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p Policy) Validate() error {
	var errs []error
	if p.MaxOrdersPerDay < 1 {
		errs = append(errs, fmt.Errorf("max orders per day must be at least 1 (got %d)", p.MaxOrdersPerDay))
	}
	if p.MinimumAdvanceDays < 0 {
		errs = append(errs, fmt.Errorf("minimum advance days cannot be negative (got %d)", p.MinimumAdvanceDays))
	}
	if p.ClosedWeekdays == NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday) {
		errs = append(errs, errors.New("every weekday is closed"))
	}
	return errors.Join(errs...)
}
