package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cozycakey/internal/availability"
	"cozycakey/internal/entities"
	apperrors "cozycakey/internal/errors"
	"cozycakey/internal/utils"
)

const (
	// MaxBatchDates caps POST /api/availability, roughly two calendar months.
	MaxBatchDates = 62

	msgUnableToVerify = "Unable to verify availability, please try again"
)

// Policies holds the base booking policy and the advance notice per order type.
type Policies struct {
	Base        availability.Policy
	AdvanceDays map[entities.OrderType]int
}

// For returns the policy that applies to t. Unknown or empty types get Base.
func (p Policies) For(t entities.OrderType) availability.Policy {
	if days, ok := p.AdvanceDays[t]; ok {
		return p.Base.WithAdvanceDays(days)
	}
	return p.Base
}

type AvailabilityService struct {
	Counter  availability.OrderCounter
	Policies Policies
	Timeout  time.Duration
	now      func() time.Time
}

func NewAvailabilityService(counter availability.OrderCounter, policies Policies, timeout time.Duration) *AvailabilityService {
	return &AvailabilityService{
		Counter:  counter,
		Policies: policies,
		Timeout:  timeout,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock, used by tests.
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	s.now = now
	return s
}

func (s *AvailabilityService) countContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *AvailabilityService) policyFor(orderType string) (availability.Policy, error) {
	t, ok, err := utils.ParseOrderType(orderType)
	if err != nil {
		return availability.Policy{}, apperrors.Wrap(http.StatusBadRequest, err.Error(), err)
	}
	if !ok {
		return s.Policies.Base, nil
	}
	return s.Policies.For(t), nil
}

func parseDate(s string) (availability.Date, error) {
	d, err := availability.ParseDate(s)
	if err != nil {
		return availability.Date{}, apperrors.Wrap(http.StatusBadRequest, err.Error(), err)
	}
	return d, nil
}

// Evaluate checks a single date for an order type. A counter failure comes
// back as a 503 HTTPError, so callers never treat it as available.
func (s *AvailabilityService) Evaluate(ctx context.Context, d availability.Date, t entities.OrderType) (availability.Verdict, error) {
	ctx, cancel := s.countContext(ctx)
	defer cancel()
	v, err := availability.Check(ctx, d, s.now(), s.Policies.For(t), s.Counter)
	if err != nil {
		return v, unableToVerify(err)
	}
	return v, nil
}

func (s *AvailabilityService) Check(ctx context.Context, date, orderType string) (*entities.AvailabilityResponse, error) {
	d, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	p, err := s.policyFor(orderType)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.countContext(ctx)
	defer cancel()
	v, err := availability.Check(ctx, d, s.now(), p, s.Counter)
	if err != nil {
		return nil, unableToVerify(err)
	}
	resp := entities.NewAvailabilityResponse(v)
	return &resp, nil
}

// CheckRange lists the unavailable dates between start and end inclusive.
func (s *AvailabilityService) CheckRange(ctx context.Context, start, end, orderType string) (*entities.AvailabilityRangeResponse, error) {
	from, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, err
	}
	p, err := s.policyFor(orderType)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.countContext(ctx)
	defer cancel()
	verdicts, err := availability.CheckRange(ctx, from, to, s.now(), p, s.Counter)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidRange) {
			return nil, apperrors.Wrap(http.StatusBadRequest, err.Error(), err)
		}
		return nil, unableToVerify(err)
	}
	resp := entities.NewAvailabilityRangeResponse(verdicts)
	return &resp, nil
}

// CheckDates answers a batch of dates in request order. When the counter
// fails the affected dates come back as UNKNOWN instead of failing the batch.
func (s *AvailabilityService) CheckDates(ctx context.Context, req entities.AvailabilityBatchRequest) (*entities.AvailabilityBatchResponse, error) {
	if len(req.Dates) == 0 {
		return nil, apperrors.ErrBadRequest("dates must not be empty")
	}
	if len(req.Dates) > MaxBatchDates {
		return nil, apperrors.ErrBadRequest("too many dates, at most 62 per request")
	}
	dates := make([]availability.Date, len(req.Dates))
	for i, raw := range req.Dates {
		d, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		dates[i] = d
	}
	p, err := s.policyFor(req.OrderType)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.countContext(ctx)
	defer cancel()
	verdicts, err := availability.CheckDates(ctx, dates, s.now(), p, s.Counter)
	if err != nil {
		slog.WarnContext(ctx, "batch availability degraded to unknown", "dates", len(dates), "err", err)
	}

	resp := &entities.AvailabilityBatchResponse{Availability: make([]entities.AvailabilityResponse, 0, len(verdicts))}
	for _, v := range verdicts {
		resp.Availability = append(resp.Availability, entities.NewAvailabilityResponse(v))
	}
	return resp, nil
}

func unableToVerify(err error) error {
	return apperrors.Wrap(http.StatusServiceUnavailable, msgUnableToVerify, err)
}
