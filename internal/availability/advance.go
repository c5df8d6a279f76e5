package availability

import (
	"fmt"
	"time"
)

// IsTooSoon reports whether d is inside the advance-notice window measured
// from now in the business timezone. today+AdvanceDays is the first bookable date.
func IsTooSoon(d Date, now time.Time, p Policy) bool {
	_, tooSoon := advanceNotice(d, now, p)
	return tooSoon
}

func advanceNotice(d Date, now time.Time, p Policy) (string, bool) {
	diff := d.DaysSince(Today(now, p.location()))
	required := p.AdvanceDays()
	switch {
	case diff < 0:
		return "Past date", true
	case diff == 0:
		return "Cannot book same day", true
	case diff == 1:
		return fmt.Sprintf("Cannot book for tomorrow (%d-day advance required)", required), true
	case diff < required:
		return fmt.Sprintf("Requires %d-day advance notice", required), true
	}
	return "", false
}
