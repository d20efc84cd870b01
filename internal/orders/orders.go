package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"storefront/internal/stores/postgres"
	"strings"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrTrackingNotFound = errors.New("tracking not found")
	ErrInvalidStatus    = errors.New("invalid order status")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// Insert writes an order header and returns its id.
func Insert(ctx context.Context, q postgres.DBTX, o NewOrder) (int64, error) {
	query := `
		INSERT INTO orders (user_id, delivery_address, original_total, discount, total, status,
		                    placed_at, payment_method, payer_name, masked_card, coupon_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := q.QueryRowContext(ctx, query, o.UserID, o.DeliveryAddress, o.OriginalTotal, o.Discount, o.Total,
		o.Status, o.PlacedAt, o.PaymentMethod, o.PayerName, o.MaskedCard, o.CouponCode).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}
	return id, nil
}

func InsertLine(ctx context.Context, q postgres.DBTX, l Line) error {
	query := `
		INSERT INTO order_lines (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := q.ExecContext(ctx, query, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice); err != nil {
		return fmt.Errorf("failed to insert order line: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, delivery_address, original_total, discount, total, status,
	placed_at, payment_method, payer_name, masked_card, coupon_code`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (Order, error) {
	var o Order
	err := r.Scan(&o.ID, &o.UserID, &o.DeliveryAddress, &o.OriginalTotal, &o.Discount, &o.Total, &o.Status,
		&o.PlacedAt, &o.PaymentMethod, &o.PayerName, &o.MaskedCard, &o.CouponCode)
	return o, err
}

// ListByUser returns the user's orders, newest first.
func (c *Conf) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY placed_at DESC, id DESC`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// Get returns an order of the user together with its lines. Orders of other
// users are reported as not found.
func (c *Conf) Get(ctx context.Context, userID string, orderID int64) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`
	o, err := scanOrder(c.db.QueryRowContext(ctx, query, orderID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}

	o.Lines, err = c.lines(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (c *Conf) lines(ctx context.Context, orderID int64) ([]Line, error) {
	query := `
		SELECT ol.order_id, ol.product_id, p.name, ol.quantity, ol.unit_price
		FROM order_lines ol
		JOIN product p ON p.id = ol.product_id
		WHERE ol.order_id = $1
		ORDER BY ol.id
	`
	rows, err := c.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}
	return lines, nil
}

func (c *Conf) Tracking(ctx context.Context, userID string, orderID int64) (Tracking, error) {
	query := `
		SELECT t.order_id, t.carrier, t.tracking_code, t.details, t.shipped_at, t.updated_at
		FROM order_tracking t
		JOIN orders o ON o.id = t.order_id
		WHERE t.order_id = $1 AND o.user_id = $2
	`
	var t Tracking
	err := c.db.QueryRowContext(ctx, query, orderID, userID).
		Scan(&t.OrderID, &t.Carrier, &t.TrackingCode, &t.Details, &t.ShippedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Tracking{}, ErrTrackingNotFound
		}
		return Tracking{}, fmt.Errorf("failed to query tracking: %w", err)
	}
	return t, nil
}

// UpdateStatus moves an order to a new status. Shipping an order opens its
// tracking record; any other change appends the details to an existing one.
// It returns the user owning the order.
func (c *Conf) UpdateStatus(ctx context.Context, orderID int64, u StatusUpdate) (string, error) {
	status, ok := ParseStatus(u.Status)
	if !ok {
		return "", ErrInvalidStatus
	}
	u.Status = status

	var userID string
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2 RETURNING user_id`,
			u.Status, orderID).Scan(&userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to update order status: %w", err)
		}

		if u.Status == StatusShipped {
			query := `
				INSERT INTO order_tracking (order_id, carrier, tracking_code, details, shipped_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())
				ON CONFLICT (order_id)
				DO UPDATE SET carrier = EXCLUDED.carrier, tracking_code = EXCLUDED.tracking_code,
				              details = EXCLUDED.details, updated_at = NOW()
			`
			if _, err := tx.ExecContext(ctx, query, orderID, u.Carrier, u.TrackingCode, u.Details); err != nil {
				return fmt.Errorf("failed to insert tracking: %w", err)
			}
			return nil
		}

		details := strings.TrimSpace(u.Details)
		if details == "" {
			return nil
		}
		query := `
			UPDATE order_tracking
			SET details = CASE WHEN details = '' THEN $1::text ELSE details || E'\n' || $1::text END, updated_at = NOW()
			WHERE order_id = $2
		`
		if _, err := tx.ExecContext(ctx, query, details, orderID); err != nil {
			return fmt.Errorf("failed to update tracking: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", er)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
