package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"storefront/internal/stores/postgres"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrPackageNotFound = errors.New("package not found")
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

func (c *Conf) GetProduct(ctx context.Context, id int64) (Product, error) {
	return GetProduct(ctx, c.db, id)
}

func (c *Conf) GetPackage(ctx context.Context, id int64) (Package, error) {
	var p Package
	query := `
		SELECT id, name, description, total_price
		FROM package
		WHERE id = $1
	`
	err := c.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.TotalPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Package{}, ErrPackageNotFound
		}
		return Package{}, fmt.Errorf("failed to query package: %w", err)
	}

	p.Components, err = Components(ctx, c.db, id)
	if err != nil {
		return Package{}, err
	}
	p.DisplayPrice = DisplayPrice(p.Components)
	return p, nil
}

func (c *Conf) ListPackages(ctx context.Context) ([]Package, error) {
	query := `
		SELECT id, name, description, total_price
		FROM package
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	packages := []Package{}
	for rows.Next() {
		var p Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.TotalPrice); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	for i := range packages {
		components, err := Components(ctx, c.db, packages[i].ID)
		if err != nil {
			return nil, err
		}
		packages[i].DisplayPrice = DisplayPrice(components)
	}
	return packages, nil
}

// DeleteProduct removes a product, or blocks it when past orders reference
// it so order history stays intact. It reports whether the product was
// blocked rather than deleted.
func (c *Conf) DeleteProduct(ctx context.Context, id int64) (blocked bool, err error) {
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM product WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to query product: %w", err)
		}
		if !exists {
			return ErrProductNotFound
		}

		var ordered bool
		err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM order_lines WHERE product_id = $1)`, id).Scan(&ordered)
		if err != nil {
			return fmt.Errorf("failed to query order lines: %w", err)
		}

		if ordered {
			if _, err := tx.ExecContext(ctx, `UPDATE product SET blocked = TRUE WHERE id = $1`, id); err != nil {
				return fmt.Errorf("failed to block product: %w", err)
			}
			blocked = true
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM package_component WHERE product_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete package components: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM product WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
	return blocked, err
}

// GetProduct reads a single product row through q.
func GetProduct(ctx context.Context, q postgres.DBTX, id int64) (Product, error) {
	var p Product
	query := `
		SELECT id, name, price, discounted_price, promo, available_quantity, blocked
		FROM product
		WHERE id = $1
	`
	err := q.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.DiscountedPrice, &p.Promo, &p.AvailableQuantity, &p.Blocked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

// Components lists every component row of a package with each product's
// effective price.
func Components(ctx context.Context, q postgres.DBTX, packageID int64) ([]Component, error) {
	query := `
		SELECT pc.product_id, p.name, pc.quantity, p.price, p.discounted_price, p.promo
		FROM package_component pc
		JOIN product p ON p.id = pc.product_id
		WHERE pc.package_id = $1
		ORDER BY pc.product_id
	`
	rows, err := q.QueryContext(ctx, query, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query package components: %w", err)
	}
	defer rows.Close()

	components := []Component{}
	for rows.Next() {
		var (
			c Component
			p Product
		)
		if err := rows.Scan(&c.ProductID, &c.Name, &c.Quantity, &p.Price, &p.DiscountedPrice, &p.Promo); err != nil {
			return nil, fmt.Errorf("failed to scan package component: %w", err)
		}
		c.UnitPrice = p.EffectivePrice()
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package components: %w", err)
	}
	return components, nil
}

// DecrementStock takes quantity units of a product only if that many are
// available and the product is not blocked. It reports false when the row
// was not updated.
func DecrementStock(ctx context.Context, q postgres.DBTX, productID int64, quantity int) (bool, error) {
	query := `
		UPDATE product
		SET available_quantity = available_quantity - $1
		WHERE id = $2 AND available_quantity >= $1 AND NOT blocked
	`
	res, err := q.ExecContext(ctx, query, quantity, productID)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
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
