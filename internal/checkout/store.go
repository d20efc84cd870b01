package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/orders"
)

// Store runs a settlement inside a single database transaction. If fn
// returns an error nothing it wrote is kept.
type Store interface {
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of reads and writes a settlement performs.
type Tx interface {
	// CartLines locks the rows it returns until the transaction ends.
	CartLines(ctx context.Context, userID string) ([]cart.Line, error)
	PackageComponents(ctx context.Context, packageID int64) ([]catalog.Component, error)
	InsertOrder(ctx context.Context, o orders.NewOrder) (int64, error)
	InsertOrderLine(ctx context.Context, l orders.Line) error
	// DecrementStock reports false when fewer than quantity units are left.
	DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error)
	Product(ctx context.Context, productID int64) (catalog.Product, error)
	// ClearCart removes the given lines, leaving rows added since they were read.
	ClearCart(ctx context.Context, userID string, lines []cart.Line) error
}

// SQLStore is the Postgres-backed Store.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistence("begin tx", err)
	}

	if err := fn(sqlTx{tx: tx}); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return persistence("rollback", fmt.Errorf("%w (after %v)", er, err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistence("commit", err)
	}
	return nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) CartLines(ctx context.Context, userID string) ([]cart.Line, error) {
	return cart.LinesForUpdate(ctx, t.tx, userID)
}

func (t sqlTx) PackageComponents(ctx context.Context, packageID int64) ([]catalog.Component, error) {
	return catalog.Components(ctx, t.tx, packageID)
}

func (t sqlTx) InsertOrder(ctx context.Context, o orders.NewOrder) (int64, error) {
	return orders.Insert(ctx, t.tx, o)
}

func (t sqlTx) InsertOrderLine(ctx context.Context, l orders.Line) error {
	return orders.InsertLine(ctx, t.tx, l)
}

func (t sqlTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	return catalog.DecrementStock(ctx, t.tx, productID, quantity)
}

func (t sqlTx) Product(ctx context.Context, productID int64) (catalog.Product, error) {
	return catalog.GetProduct(ctx, t.tx, productID)
}

func (t sqlTx) ClearCart(ctx context.Context, userID string, lines []cart.Line) error {
	return cart.ClearLines(ctx, t.tx, userID, lines)
}
