package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cozycakey/internal/availability"
	"cozycakey/internal/db"
	"cozycakey/internal/entities"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type AdminRepository struct {
	DB *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

// ListOrders returns one page of orders, soonest delivery date first, plus the
// total number of rows matching the filter.
func (r *AdminRepository) ListOrders(ctx context.Context, f entities.OrderFilter) ([]db.Order, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.Date != "" {
		where += " AND delivery_date = $" + strconv.Itoa(idx) + "::date"
		args = append(args, f.Date)
		idx++
	}
	if len(f.Statuses) > 0 {
		where += " AND status = ANY($" + strconv.Itoa(idx) + ")"
		args = append(args, pq.Array(f.Statuses))
		idx++
	}
	if f.OrderType != "" {
		where += " AND order_type = $" + strconv.Itoa(idx)
		args = append(args, f.OrderType)
		idx++
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		" ORDER BY delivery_date ASC, created_at ASC LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing orders: %w", err)
	}
	defer rows.Close()

	orders := []db.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error after iterating orders: %w", err)
	}
	return orders, total, nil
}

// UpdateOrderStatus sets the status of an order. Moving a cancelled order back
// to an active status puts it on the books again, so that change takes the
// date's capacity lock and is refused once the date holds maxPerDay orders.
func (r *AdminRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status string, maxPerDay int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting status transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		current string
		day     time.Time
	)
	err = tx.QueryRowContext(ctx, `SELECT status, delivery_date FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current, &day)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	if err != nil {
		return fmt.Errorf("error loading order %s: %w", id, err)
	}

	if current == db.StatusCancelled && status != db.StatusCancelled {
		if err := reserveSlot(ctx, tx, availability.DateOf(day), maxPerDay); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("error updating order %s: %w", id, err)
	}
	if err := expectOneRow(res, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing status of order %s: %w", id, err)
	}
	return nil
}

func (r *AdminRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting order %s: %w", id, err)
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
	}
	return nil
}
