package availability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Reason is the machine-readable cause attached to a verdict.
type Reason string

const (
	ReasonOK          Reason = "OK"
	ReasonClosedDay   Reason = "CLOSED_DAY"
	ReasonTooSoon     Reason = "TOO_SOON"
	ReasonFullyBooked Reason = "FULLY_BOOKED"
	// ReasonUnknown means capacity could not be verified.
	ReasonUnknown Reason = "UNKNOWN"
)

const (
	MessageAvailable  = "Available"
	MessageCheckError = "Error checking availability"
	// MaxRangeDays bounds a single range query.
	MaxRangeDays = 450
)

var ErrInvalidRange = errors.New("invalid date range")

// Verdict is the answer for one date. Message is always set when Available is false.
type Verdict struct {
	Date          Date
	Available     bool
	Reason        Reason
	Message       string
	CurrentOrders int
	MaxOrders     int
}

// localVerdict runs the checks that need no I/O, advance notice first and then
// closure. ok is false when one of them rejects d.
func localVerdict(d Date, now time.Time, p Policy) (Verdict, bool) {
	v := Verdict{Date: d, MaxOrders: p.MaxOrdersPerDay}
	if msg, tooSoon := advanceNotice(d, now, p); tooSoon {
		v.Reason = ReasonTooSoon
		v.Message = msg
		return v, false
	}
	if IsClosedDay(d, p) {
		v.Reason = ReasonClosedDay
		v.Message = closedMessage(p)
		return v, false
	}
	return v, true
}

func applyOccupancy(v Verdict, occ Occupancy) Verdict {
	v.CurrentOrders = occ.Orders
	v.MaxOrders = occ.Max
	if occ.Full() {
		v.Reason = ReasonFullyBooked
		v.Message = FullyBookedMessage(occ.Max)
		return v
	}
	v.Available = true
	v.Reason = ReasonOK
	v.Message = MessageAvailable
	return v
}

func unknownVerdict(v Verdict) Verdict {
	v.Available = false
	v.Reason = ReasonUnknown
	v.Message = MessageCheckError
	return v
}

// Check evaluates a single date: too soon, then closed, then fully booked.
// A counter failure yields an UNKNOWN verdict together with an error wrapping
// ErrCountUnavailable.
func Check(ctx context.Context, d Date, now time.Time, p Policy, counter OrderCounter) (Verdict, error) {
	v, ok := localVerdict(d, now, p)
	if !ok {
		return v, nil
	}
	occ, err := CheckCapacity(ctx, d, counter, p)
	if err != nil {
		return unknownVerdict(v), err
	}
	return applyOccupancy(v, occ), nil
}

// CheckRange returns the unavailable dates in [start, end] in ascending order.
// The order count source is queried at most once, and only over the dates
// that pass the local checks.
func CheckRange(ctx context.Context, start, end Date, now time.Time, p Policy, counter OrderCounter) ([]Verdict, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRange, end, start)
	}
	if span := end.DaysSince(start) + 1; span > MaxRangeDays {
		return nil, fmt.Errorf("%w: %d days requested, at most %d allowed", ErrInvalidRange, span, MaxRangeDays)
	}

	verdicts := make([]Verdict, 0, end.DaysSince(start)+1)
	var first, last Date
	pending := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		v, ok := localVerdict(d, now, p)
		verdicts = append(verdicts, v)
		if !ok {
			continue
		}
		if pending == 0 {
			first = d
		}
		last = d
		pending++
	}

	if pending > 0 {
		occ, err := CheckCapacityRange(ctx, first, last, counter, p)
		if err != nil {
			return nil, err
		}
		for i, v := range verdicts {
			if v.Reason != "" {
				continue
			}
			verdicts[i] = applyOccupancy(v, occ[v.Date])
		}
	}

	unavailable := make([]Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if !v.Available {
			unavailable = append(unavailable, v)
		}
	}
	return unavailable, nil
}

// CheckDates evaluates independent dates and returns one verdict per input, in
// input order. Capacity for all surviving dates comes from one range query;
// if it fails those dates are UNKNOWN and the error is returned alongside.
func CheckDates(ctx context.Context, dates []Date, now time.Time, p Policy, counter OrderCounter) ([]Verdict, error) {
	verdicts := make([]Verdict, len(dates))
	var first, last Date
	pending := 0
	for i, d := range dates {
		v, ok := localVerdict(d, now, p)
		verdicts[i] = v
		if !ok {
			continue
		}
		if pending == 0 || d.Before(first) {
			first = d
		}
		if pending == 0 || d.After(last) {
			last = d
		}
		pending++
	}
	if pending == 0 {
		return verdicts, nil
	}

	counts, err := counter.CountOrdersInRange(ctx, first, last)
	if err != nil {
		err = fmt.Errorf("%w: counting orders %s..%s: %w", ErrCountUnavailable, first, last, err)
	}
	for i, v := range verdicts {
		if v.Reason != "" {
			continue
		}
		if err != nil {
			verdicts[i] = unknownVerdict(v)
			continue
		}
		verdicts[i] = applyOccupancy(v, Occupancy{Orders: counts[v.Date], Max: p.MaxOrdersPerDay})
	}
	return verdicts, err
}
