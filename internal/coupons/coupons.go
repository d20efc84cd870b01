package coupons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"storefront/internal/stores/postgres"
	"time"

	"github.com/shopspring/decimal"
)

type Conf struct {
	db  *sql.DB
	now func() time.Time
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db, now: time.Now}, nil
}

const couponColumns = `id, code, description, discount_type, value, min_amount, starts_at, expires_at,
	max_uses, uses, active, single_use, created_at`

func scanCoupon(row interface{ Scan(...any) error }) (Coupon, error) {
	var (
		c       Coupon
		maxUses sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.Value, &c.MinAmount, &c.StartsAt,
		&c.ExpiresAt, &maxUses, &c.Uses, &c.Active, &c.SingleUse, &c.CreatedAt)
	if err != nil {
		return Coupon{}, err
	}
	if maxUses.Valid {
		n := int(maxUses.Int64)
		c.MaxUses = &n
	}
	return c, nil
}

func getByCode(ctx context.Context, q postgres.DBTX, code string, forUpdate bool) (Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupon WHERE code = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	c, err := scanCoupon(q.QueryRowContext(ctx, query, NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Coupon{}, ErrCouponNotFound
		}
		return Coupon{}, fmt.Errorf("failed to query coupon: %w", err)
	}
	return c, nil
}

func usedBy(ctx context.Context, q postgres.DBTX, couponID int64, userID string) (bool, error) {
	var used bool
	query := `SELECT EXISTS (SELECT 1 FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2)`
	if err := q.QueryRowContext(ctx, query, couponID, userID).Scan(&used); err != nil {
		return false, fmt.Errorf("failed to query coupon usage: %w", err)
	}
	return used, nil
}

// Verify tells the user what a coupon would take off cartTotal without
// redeeming it.
func (c *Conf) Verify(ctx context.Context, userID, code string, cartTotal decimal.Decimal) (Evaluation, error) {
	cp, err := getByCode(ctx, c.db, code, false)
	if err != nil {
		return Evaluation{}, err
	}
	used := false
	if cp.SingleUse {
		if used, err = usedBy(ctx, c.db, cp.ID, userID); err != nil {
			return Evaluation{}, err
		}
	}
	return Evaluate(cp, cartTotal, c.now(), used)
}

// Use redeems a coupon for the user: single-use coupons record the user and
// every coupon counts one more use.
func (c *Conf) Use(ctx context.Context, userID, code string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cp, err := getByCode(ctx, tx, code, true)
		if err != nil {
			return err
		}
		used := false
		if cp.SingleUse {
			if used, err = usedBy(ctx, tx, cp.ID, userID); err != nil {
				return err
			}
		}
		if err := CheckUsable(cp, c.now(), used); err != nil {
			return err
		}

		if cp.SingleUse {
			_, err := tx.ExecContext(ctx, `INSERT INTO coupon_usage (coupon_id, user_id, used_at) VALUES ($1, $2, NOW())`,
				cp.ID, userID)
			if err != nil {
				if postgres.IsUniqueViolation(err) {
					return ErrCouponAlreadyUsed
				}
				return fmt.Errorf("failed to record coupon usage: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE coupon SET uses = uses + 1 WHERE id = $1`, cp.ID); err != nil {
			return fmt.Errorf("failed to increment coupon uses: %w", err)
		}
		return nil
	})
}

func (c *Conf) Create(ctx context.Context, n NewCoupon) (Coupon, error) {
	if err := n.Check(); err != nil {
		return Coupon{}, err
	}
	minAmount := decimal.Zero
	if n.MinAmount != nil {
		minAmount = *n.MinAmount
	}

	query := `
		INSERT INTO coupon (code, description, discount_type, value, min_amount, starts_at, expires_at,
		                    max_uses, single_use, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, NOW())
		RETURNING ` + couponColumns
	cp, err := scanCoupon(c.db.QueryRowContext(ctx, query, NormalizeCode(n.Code), n.Description, n.DiscountType,
		n.Value, minAmount, n.StartsAt, n.ExpiresAt, n.MaxUses, n.SingleUse))
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return Coupon{}, ErrDuplicateCode
		}
		return Coupon{}, fmt.Errorf("failed to insert coupon: %w", err)
	}
	return cp, nil
}

func (c *Conf) List(ctx context.Context) ([]Coupon, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+couponColumns+` FROM coupon ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	list := []Coupon{}
	for rows.Next() {
		cp, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		list = append(list, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}
	return list, nil
}

func (c *Conf) Delete(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM coupon WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrCouponNotFound
	}
	return nil
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
