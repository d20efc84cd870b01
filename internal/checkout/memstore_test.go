package checkout_test

import (
	"context"
	"errors"
	"maps"
	"slices"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/orders"

	"github.com/shopspring/decimal"
)

type memPackage struct {
	name  string
	total decimal.Decimal
}

type memComponent struct {
	productID int64
	quantity  int
}

type memCartRow struct {
	id       int64
	quantity int
}

type memOrder struct {
	id int64
	orders.NewOrder
}

type memState struct {
	products     map[int64]catalog.Product
	packages     map[int64]memPackage
	components   map[int64][]memComponent
	cartProducts map[string][]memCartRow
	cartPackages map[string][]memCartRow
	orders       []memOrder
	lines        []orders.Line
}

func newMemState() memState {
	return memState{
		products:     map[int64]catalog.Product{},
		packages:     map[int64]memPackage{},
		components:   map[int64][]memComponent{},
		cartProducts: map[string][]memCartRow{},
		cartPackages: map[string][]memCartRow{},
	}
}

func (s memState) clone() memState {
	c := memState{
		products:     maps.Clone(s.products),
		packages:     maps.Clone(s.packages),
		components:   map[int64][]memComponent{},
		cartProducts: map[string][]memCartRow{},
		cartPackages: map[string][]memCartRow{},
		orders:       slices.Clone(s.orders),
		lines:        slices.Clone(s.lines),
	}
	for k, v := range s.components {
		c.components[k] = slices.Clone(v)
	}
	for k, v := range s.cartProducts {
		c.cartProducts[k] = slices.Clone(v)
	}
	for k, v := range s.cartPackages {
		c.cartPackages[k] = slices.Clone(v)
	}
	return c
}

// memStore keeps committed state and gives every transaction a private copy
// that replaces it only when the transaction function succeeds.
type memStore struct {
	state memState

	// failDecrementOn makes the n-th DecrementStock call (1-based) fail.
	failDecrementOn int
	decrementCalls  int
	commits         int

	// beforeClear runs inside the transaction right before the cart is
	// cleared, standing in for a row added after the cart was read.
	beforeClear func(s *memState)
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(checkout.Tx) error) error {
	work := m.state.clone()
	if err := fn(&memTx{store: m, s: &work}); err != nil {
		return err
	}
	m.state = work
	m.commits++
	return nil
}

type memTx struct {
	store *memStore
	s     *memState
}

func (t *memTx) CartLines(ctx context.Context, userID string) ([]cart.Line, error) {
	lines := []cart.Line{}
	for _, row := range t.s.cartProducts[userID] {
		p := t.s.products[row.id]
		available := p.AvailableQuantity
		if p.Blocked {
			available = 0
		}
		lines = append(lines, cart.Line{
			Kind:              cart.KindProduct,
			RefID:             p.ID,
			Name:              p.Name,
			Quantity:          row.quantity,
			UnitPrice:         p.EffectivePrice(),
			AvailableQuantity: available,
		})
	}
	for _, row := range t.s.cartPackages[userID] {
		pk := t.s.packages[row.id]
		lines = append(lines, cart.Line{
			Kind:              cart.KindPackage,
			RefID:             row.id,
			Name:              pk.name,
			Quantity:          row.quantity,
			UnitPrice:         pk.total,
			AvailableQuantity: cart.Unlimited,
		})
	}
	return lines, nil
}

func (t *memTx) PackageComponents(ctx context.Context, packageID int64) ([]catalog.Component, error) {
	components := []catalog.Component{}
	for _, c := range t.s.components[packageID] {
		p := t.s.products[c.productID]
		components = append(components, catalog.Component{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  c.quantity,
			UnitPrice: p.EffectivePrice(),
		})
	}
	return components, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o orders.NewOrder) (int64, error) {
	id := int64(len(t.s.orders) + 1)
	t.s.orders = append(t.s.orders, memOrder{id: id, NewOrder: o})
	return id, nil
}

func (t *memTx) InsertOrderLine(ctx context.Context, l orders.Line) error {
	t.s.lines = append(t.s.lines, l)
	return nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	t.store.decrementCalls++
	if t.store.failDecrementOn == t.store.decrementCalls {
		return false, errors.New("simulated write failure")
	}
	p, ok := t.s.products[productID]
	if !ok || p.Blocked || p.AvailableQuantity < quantity {
		return false, nil
	}
	p.AvailableQuantity -= quantity
	t.s.products[productID] = p
	return true, nil
}

func (t *memTx) Product(ctx context.Context, productID int64) (catalog.Product, error) {
	p, ok := t.s.products[productID]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (t *memTx) ClearCart(ctx context.Context, userID string, lines []cart.Line) error {
	if t.store.beforeClear != nil {
		t.store.beforeClear(t.s)
	}
	for _, l := range lines {
		switch l.Kind {
		case cart.KindProduct:
			t.s.cartProducts[userID] = slices.DeleteFunc(t.s.cartProducts[userID],
				func(r memCartRow) bool { return r.id == l.RefID })
		case cart.KindPackage:
			t.s.cartPackages[userID] = slices.DeleteFunc(t.s.cartPackages[userID],
				func(r memCartRow) bool { return r.id == l.RefID })
		}
	}
	return nil
}

// fixture helpers

func (m *memStore) addProduct(id int64, name, price string, stock int) {
	m.state.products[id] = catalog.Product{
		ID:                id,
		Name:              name,
		Price:             decimal.RequireFromString(price),
		AvailableQuantity: stock,
	}
}

func (m *memStore) setPromo(id int64, discounted string) {
	p := m.state.products[id]
	p.Promo = true
	p.DiscountedPrice = decimal.NewNullDecimal(decimal.RequireFromString(discounted))
	m.state.products[id] = p
}

func (m *memStore) addPackage(id int64, name, total string, components ...memComponent) {
	m.state.packages[id] = memPackage{name: name, total: decimal.RequireFromString(total)}
	m.state.components[id] = components
}

func (m *memStore) putProductInCart(userID string, productID int64, qty int) {
	m.state.cartProducts[userID] = append(m.state.cartProducts[userID], memCartRow{id: productID, quantity: qty})
}

func (m *memStore) putPackageInCart(userID string, packageID int64, qty int) {
	m.state.cartPackages[userID] = append(m.state.cartPackages[userID], memCartRow{id: packageID, quantity: qty})
}

func (m *memStore) stock(id int64) int {
	return m.state.products[id].AvailableQuantity
}

func (m *memStore) cartSize(userID string) int {
	return len(m.state.cartProducts[userID]) + len(m.state.cartPackages[userID])
}
