package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cozycakey/internal/availability"
)

type PastOrderCompleter interface {
	CompleteOrdersBefore(ctx context.Context, before availability.Date) (int64, error)
}

type JobService struct {
	Repo     PastOrderCompleter
	Location *time.Location
	now      func() time.Time
}

func NewJobService(repo PastOrderCompleter, loc *time.Location) *JobService {
	return &JobService{Repo: repo, Location: loc, now: time.Now}
}

// CompletePastOrders marks pending and confirmed orders whose delivery date
// is before today, in bakery time, as completed.
func (s *JobService) CompletePastOrders(ctx context.Context) error {
	today := availability.Today(s.now(), s.Location)
	slog.Info("cron job: completing past orders", "before", today.String())

	n, err := s.Repo.CompleteOrdersBefore(ctx, today)
	if err != nil {
		return fmt.Errorf("cron job: failed to complete past orders: %w", err)
	}
	slog.Info("cron job: past orders completed", "count", n)
	return nil
}
