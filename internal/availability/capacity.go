package availability

import (
	"context"
	"errors"
	"fmt"
)

// ErrCountUnavailable marks every failure of the order count source. Callers
// must treat it as "cannot confirm", never as a pass.
var ErrCountUnavailable = errors.New("order count unavailable")

// OrderCounter is the read-only view of the order store the engine needs.
// CountOrdersInRange may omit dates without orders.
type OrderCounter interface {
	CountOrdersOn(ctx context.Context, d Date) (int, error)
	CountOrdersInRange(ctx context.Context, start, end Date) (map[Date]int, error)
}

// Occupancy is the booked count for one date against the policy ceiling.
type Occupancy struct {
	Orders int
	Max    int
}

func (o Occupancy) Full() bool {
	return o.Orders >= o.Max
}

func CheckCapacity(ctx context.Context, d Date, counter OrderCounter, p Policy) (Occupancy, error) {
	n, err := counter.CountOrdersOn(ctx, d)
	if err != nil {
		return Occupancy{Max: p.MaxOrdersPerDay}, fmt.Errorf("%w: counting orders on %s: %w", ErrCountUnavailable, d, err)
	}
	return Occupancy{Orders: n, Max: p.MaxOrdersPerDay}, nil
}

// CheckCapacityRange issues a single range query and returns an entry for
// every date in [start, end].
func CheckCapacityRange(ctx context.Context, start, end Date, counter OrderCounter, p Policy) (map[Date]Occupancy, error) {
	counts, err := counter.CountOrdersInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: counting orders %s..%s: %w", ErrCountUnavailable, start, end, err)
	}
	out := make(map[Date]Occupancy, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		out[d] = Occupancy{Orders: counts[d], Max: p.MaxOrdersPerDay}
	}
	return out, nil
}

func IsFullyBooked(ctx context.Context, d Date, counter OrderCounter, p Policy) (bool, error) {
	occ, err := CheckCapacity(ctx, d, counter, p)
	if err != nil {
		return false, err
	}
	return occ.Full(), nil
}

func IsFullyBookedBatch(ctx context.Context, start, end Date, counter OrderCounter, p Policy) (map[Date]bool, error) {
	occ, err := CheckCapacityRange(ctx, start, end, counter, p)
	if err != nil {
		return nil, err
	}
	out := make(map[Date]bool, len(occ))
	for d, o := range occ {
		out[d] = o.Full()
	}
	return out, nil
}

func FullyBookedMessage(limit int) string {
	return fmt.Sprintf("Fully booked (%d+ orders)", limit)
}
