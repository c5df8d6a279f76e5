package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cozycakey/internal/availability"
	"cozycakey/internal/db"
	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// CompleteOrdersBefore marks open orders whose delivery date is before the
// given date as completed and returns how many rows changed.
func (r *JobRepository) CompleteOrdersBefore(ctx context.Context, before availability.Date) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE delivery_date < $2::date AND status = ANY($3)`,
		db.StatusCompleted, before.String(), pq.Array([]string{db.StatusPending, db.StatusConfirmed}),
	)
	if err != nil {
		return 0, fmt.Errorf("error completing past orders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get rows affected: %w", err)
	}
	return n, nil
}
