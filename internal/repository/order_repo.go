package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cozycakey/internal/availability"
	"cozycakey/internal/db"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrDateFullyBooked = errors.New("date is fully booked")
	ErrOrderNotFound   = errors.New("order not found")
)

// capacityLockNamespace keeps the per-date advisory locks apart from any other
// advisory lock user of the database.
const capacityLockNamespace int64 = 0x43414b45 << 32

var lockEpoch = availability.NewDate(2000, time.January, 1)

func capacityLockKey(d availability.Date) int64 {
	return capacityLockNamespace | int64(uint32(d.DaysSince(lockEpoch)))
}

const orderColumns = `id, order_type, cake_id, cake_name, size, flavor, delivery_date, pickup_time,
	customer_name, email, phone, customer_type, delivery_option, address, payment_method,
	allergy_agreement, questions_comments, discount_code, total_price, status, details, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (db.Order, error) {
	var (
		o       db.Order
		date    time.Time
		details []byte
	)
	err := row.Scan(
		&o.ID, &o.OrderType, &o.CakeID, &o.CakeName, &o.Size, &o.Flavor, &date, &o.PickupTime,
		&o.CustomerName, &o.Email, &o.Phone, &o.CustomerType, &o.DeliveryOption, &o.Address, &o.PaymentMethod,
		&o.AllergyAgreement, &o.QuestionsComments, &o.DiscountCode, &o.TotalPrice, &o.Status, &details, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return db.Order{}, err
	}
	o.DeliveryDate = availability.DateOf(date)
	if len(details) > 0 {
		o.Details = details
	}
	return o, nil
}

type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// CountOrdersOn counts the non-cancelled orders due on d.
func (r *OrderRepository) CountOrdersOn(ctx context.Context, d availability.Date) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE delivery_date = $1::date AND status <> $2`,
		d.String(), db.StatusCancelled,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting orders on %s: %w", d, err)
	}
	return n, nil
}

// CountOrdersInRange returns counts for the dates in [start, end] that have at
// least one non-cancelled order.
func (r *OrderRepository) CountOrdersInRange(ctx context.Context, start, end availability.Date) (map[availability.Date]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT delivery_date, COUNT(*)
		FROM orders
		WHERE delivery_date BETWEEN $1::date AND $2::date
			AND status <> $3
		GROUP BY delivery_date`,
		start.String(), end.String(), db.StatusCancelled,
	)
	if err != nil {
		return nil, fmt.Errorf("error counting orders %s..%s: %w", start, end, err)
	}
	defer rows.Close()

	counts := make(map[availability.Date]int)
	for rows.Next() {
		var (
			day time.Time
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("error scanning order count: %w", err)
		}
		counts[availability.DateOf(day)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating order counts: %w", err)
	}
	return counts, nil
}

// CreateOrderWithinCapacity inserts o unless its delivery date already holds
// maxPerDay non-cancelled orders. A transaction-scoped advisory lock on the date
// serializes concurrent inserts for the same day.
func (r *OrderRepository) CreateOrderWithinCapacity(ctx context.Context, o *db.Order, maxPerDay int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := reserveSlot(ctx, tx, o.DeliveryDate, maxPerDay); err != nil {
		return err
	}

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = db.StatusPending
	}
	var details any
	if len(o.Details) > 0 {
		details = []byte(o.Details)
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders
		(id, order_type, cake_id, cake_name, size, flavor, delivery_date, pickup_time,
		 customer_name, email, phone, customer_type, delivery_option, address, payment_method,
		 allergy_agreement, questions_comments, discount_code, total_price, status, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderType, o.CakeID, o.CakeName, o.Size, o.Flavor, o.DeliveryDate.String(), o.PickupTime,
		o.CustomerName, o.Email, o.Phone, o.CustomerType, o.DeliveryOption, o.Address, o.PaymentMethod,
		o.AllergyAgreement, o.QuestionsComments, o.DiscountCode, o.TotalPrice, o.Status, details,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing order: %w", err)
	}
	return nil
}

// reserveSlot takes the advisory lock for d and recounts its non-cancelled
// orders. The lock is held until tx ends, so the caller's write lands before
// any other writer for d can recount.
func reserveSlot(ctx context.Context, tx *sql.Tx, d availability.Date, maxPerDay int) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, capacityLockKey(d)); err != nil {
		return fmt.Errorf("error locking %s: %w", d, err)
	}
	var booked int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE delivery_date = $1::date AND status <> $2`,
		d.String(), db.StatusCancelled,
	).Scan(&booked)
	if err != nil {
		return fmt.Errorf("error recounting orders on %s: %w", d, err)
	}
	if booked >= maxPerDay {
		return ErrDateFullyBooked
	}
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id uuid.UUID) (*db.Order, error) {
	o, err := scanOrder(r.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("error querying order: %w", err)
	}
	return &o, nil
}

// IsUndefinedTable reports a missing orders table, the usual sign that the
// migrations were not applied.
func IsUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

// Ping checks the connection and that the orders table exists.
func (r *OrderRepository) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, `SELECT 1 FROM orders LIMIT 1`)
	if IsUndefinedTable(err) {
		return errors.New("orders table missing, apply migrations")
	}
	return err
}
