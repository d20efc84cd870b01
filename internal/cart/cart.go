package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"storefront/internal/catalog"
	"storefront/internal/pricing"
	"storefront/internal/stores/postgres"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrOutOfStock      = errors.New("product is not available")
	ErrItemNotInCart   = errors.New("item not in cart")
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

// Lines aggregates the user's product and package carts. Product lines come
// first, each group ordered by id. An empty cart yields an empty slice.
func Lines(ctx context.Context, q postgres.DBTX, userID string) ([]Line, error) {
	return readLines(ctx, q, userID, false)
}

// LinesForUpdate is Lines with the cart rows locked until the surrounding
// transaction ends. q must be a transaction.
func LinesForUpdate(ctx context.Context, q postgres.DBTX, userID string) ([]Line, error) {
	return readLines(ctx, q, userID, true)
}

func readLines(ctx context.Context, q postgres.DBTX, userID string, lock bool) ([]Line, error) {
	lines := []Line{}
	lockClause := ""
	if lock {
		lockClause = " FOR UPDATE OF cp"
	}

	queryProducts := `
		SELECT cp.product_id, p.name, cp.quantity, p.price, p.discounted_price, p.promo,
		       p.available_quantity, p.blocked
		FROM cart_product cp
		JOIN product p ON p.id = cp.product_id
		WHERE cp.user_id = $1
		ORDER BY cp.product_id
	` + lockClause
	rows, err := q.QueryContext(ctx, queryProducts, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product cart: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l Line
			p catalog.Product
		)
		err := rows.Scan(&l.RefID, &l.Name, &l.Quantity, &p.Price, &p.DiscountedPrice, &p.Promo,
			&p.AvailableQuantity, &p.Blocked)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product cart row: %w", err)
		}
		l.Kind = KindProduct
		l.UnitPrice = p.EffectivePrice()
		l.AvailableQuantity = p.AvailableQuantity
		if p.Blocked {
			l.AvailableQuantity = 0
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product cart: %w", err)
	}

	queryPackages := `
		SELECT cp.package_id, pk.name, cp.quantity, pk.total_price
		FROM cart_package cp
		JOIN package pk ON pk.id = cp.package_id
		WHERE cp.user_id = $1
		ORDER BY cp.package_id
	` + lockClause
	pkgRows, err := q.QueryContext(ctx, queryPackages, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query package cart: %w", err)
	}
	defer pkgRows.Close()

	for pkgRows.Next() {
		l := Line{Kind: KindPackage, AvailableQuantity: Unlimited}
		if err := pkgRows.Scan(&l.RefID, &l.Name, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan package cart row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := pkgRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package cart: %w", err)
	}

	return lines, nil
}

// ClearLines deletes the given lines from the user's cart. Rows added after
// the lines were read are kept.
func ClearLines(ctx context.Context, q postgres.DBTX, userID string, lines []Line) error {
	var productIDs, packageIDs []int64
	for _, l := range lines {
		switch l.Kind {
		case KindProduct:
			productIDs = append(productIDs, l.RefID)
		case KindPackage:
			packageIDs = append(packageIDs, l.RefID)
		}
	}
	if len(productIDs) > 0 {
		_, err := q.ExecContext(ctx, `DELETE FROM cart_product WHERE user_id = $1 AND product_id = ANY($2)`,
			userID, productIDs)
		if err != nil {
			return fmt.Errorf("failed to clear product cart: %w", err)
		}
	}
	if len(packageIDs) > 0 {
		_, err := q.ExecContext(ctx, `DELETE FROM cart_package WHERE user_id = $1 AND package_id = ANY($2)`,
			userID, packageIDs)
		if err != nil {
			return fmt.Errorf("failed to clear package cart: %w", err)
		}
	}
	return nil
}

func (c *Conf) Lines(ctx context.Context, userID string) ([]Line, error) {
	return Lines(ctx, c.db, userID)
}

// View prices the cart for display. Package lines are charged at their
// total price and also carry the bundle display price.
func (c *Conf) View(ctx context.Context, userID string) (View, error) {
	lines, err := Lines(ctx, c.db, userID)
	if err != nil {
		return View{}, err
	}

	v := View{Lines: make([]ViewLine, 0, len(lines)), Total: decimal.Zero}
	for _, l := range lines {
		vl := ViewLine{Line: l, LineTotal: pricing.LineTotal(l.UnitPrice, l.Quantity)}
		if l.Kind == KindPackage {
			components, err := catalog.Components(ctx, c.db, l.RefID)
			if err != nil {
				return View{}, err
			}
			dp := catalog.DisplayPrice(components)
			vl.DisplayPrice = &dp
		}
		v.Total = v.Total.Add(vl.LineTotal)
		v.Lines = append(v.Lines, vl)
	}
	return v, nil
}

// AddProduct puts quantity units of a product into the cart, adding to any
// quantity already there.
func (c *Conf) AddProduct(ctx context.Context, userID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		p, err := catalog.GetProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if p.Blocked || p.AvailableQuantity <= 0 {
			return ErrOutOfStock
		}

		query := `
			INSERT INTO cart_product (user_id, product_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET quantity = cart_product.quantity + EXCLUDED.quantity, updated_at = NOW()
		`
		if _, err := tx.ExecContext(ctx, query, userID, productID, quantity); err != nil {
			return fmt.Errorf("failed to add product to cart: %w", err)
		}
		return nil
	})
}

func (c *Conf) AddPackage(ctx context.Context, userID string, packageID int64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM package WHERE id = $1)`, packageID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to query package: %w", err)
		}
		if !exists {
			return catalog.ErrPackageNotFound
		}

		query := `
			INSERT INTO cart_package (user_id, package_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (user_id, package_id)
			DO UPDATE SET quantity = cart_package.quantity + EXCLUDED.quantity, updated_at = NOW()
		`
		if _, err := tx.ExecContext(ctx, query, userID, packageID, quantity); err != nil {
			return fmt.Errorf("failed to add package to cart: %w", err)
		}
		return nil
	})
}

// UpdateProduct sets the quantity of a product line; zero or less removes it.
func (c *Conf) UpdateProduct(ctx context.Context, userID string, productID int64, quantity int) error {
	if quantity <= 0 {
		return c.RemoveProduct(ctx, userID, productID)
	}
	query := `
		UPDATE cart_product
		SET quantity = $1, updated_at = NOW()
		WHERE user_id = $2 AND product_id = $3
	`
	return c.execOne(ctx, query, quantity, userID, productID)
}

// UpdatePackage sets the quantity of a package line; zero or less removes it.
func (c *Conf) UpdatePackage(ctx context.Context, userID string, packageID int64, quantity int) error {
	if quantity <= 0 {
		return c.RemovePackage(ctx, userID, packageID)
	}
	query := `
		UPDATE cart_package
		SET quantity = $1, updated_at = NOW()
		WHERE user_id = $2 AND package_id = $3
	`
	return c.execOne(ctx, query, quantity, userID, packageID)
}

func (c *Conf) RemoveProduct(ctx context.Context, userID string, productID int64) error {
	return c.execOne(ctx, `DELETE FROM cart_product WHERE user_id = $1 AND product_id = $2`, userID, productID)
}

func (c *Conf) RemovePackage(ctx context.Context, userID string, packageID int64) error {
	return c.execOne(ctx, `DELETE FROM cart_package WHERE user_id = $1 AND package_id = $2`, userID, packageID)
}

func (c *Conf) execOne(ctx context.Context, query string, args ...any) error {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrItemNotInCart
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
