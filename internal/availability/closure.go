package availability

import "strings"

// IsClosedDay reports whether d falls on one of the policy's weekly off-days.
func IsClosedDay(d Date, p Policy) bool {
	return p.ClosedWeekdays.Has(d.Weekday())
}

// closedMessage renders the set as "Closed on Sundays and Mondays".
func closedMessage(p Policy) string {
	days := p.ClosedWeekdays.Days()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String() + "s"
	}
	switch len(names) {
	case 0:
		return "Closed"
	case 1:
		return "Closed on " + names[0]
	}
	return "Closed on " + strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
