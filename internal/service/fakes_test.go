package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cozycakey/internal/availability"
	"cozycakey/internal/db"
	"cozycakey/internal/entities"
	"cozycakey/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts     map[availability.Date]int
	err        error
	rangeCalls int
}

func (f *fakeCounter) CountOrdersOn(_ context.Context, d availability.Date) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[d], nil
}

func (f *fakeCounter) CountOrdersInRange(_ context.Context, start, end availability.Date) (map[availability.Date]int, error) {
	f.rangeCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := map[availability.Date]int{}
	for d, n := range f.counts {
		if !d.Before(start) && !d.After(end) {
			out[d] = n
		}
	}
	return out, nil
}

// fakeStore behaves like the repository: it refuses dates at the limit.
type fakeStore struct {
	counter     *fakeCounter
	err         error
	orders      []db.Order
	hadDeadline bool
}

func (f *fakeStore) CreateOrderWithinCapacity(ctx context.Context, o *db.Order, maxPerDay int) error {
	_, f.hadDeadline = ctx.Deadline()
	if f.err != nil {
		return f.err
	}
	if f.counter.counts[o.DeliveryDate] >= maxPerDay {
		return repository.ErrDateFullyBooked
	}
	o.ID = uuid.New()
	o.Status = db.StatusPending
	f.counter.counts[o.DeliveryDate]++
	f.orders = append(f.orders, *o)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	placed []db.Order
}

func (f *fakeNotifier) OrderPlaced(o db.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, o)
}

// fixedNow is Tuesday 2025-06-10, 10:00 in New York.
func fixedNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2025, time.June, 10, 10, 0, 0, 0, loc)
}

func testPolicies(t *testing.T) Policies {
	t.Helper()
	p := availability.DefaultPolicy()
	p.Location = fixedNow(t).Location()
	return Policies{
		Base: p,
		AdvanceDays: map[entities.OrderType]int{
			entities.OrderTypeDesign:   2,
			entities.OrderTypeCatering: 4,
		},
	}
}

func newTestAvailability(t *testing.T, counter *fakeCounter) *AvailabilityService {
	t.Helper()
	now := fixedNow(t)
	return NewAvailabilityService(counter, testPolicies(t), time.Second).
		WithClock(func() time.Time { return now })
}

func date(y int, m time.Month, d int) availability.Date {
	return availability.NewDate(y, m, d)
}
