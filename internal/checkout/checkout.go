package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/orders"
	"storefront/internal/pricing"
	"storefront/internal/stores/kafka"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is the stage a settlement has reached.
type State string

const (
	StateStarted   State = "started"
	StateValidated State = "validated"
	StatePriced    State = "priced"
	StatePersisted State = "persisted"
	StateCommitted State = "committed"
	StateAborted   State = "aborted"
)

// Publisher sends a message to a topic. *kafka.Conf satisfies it.
type Publisher interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte) error
}

type Result struct {
	OrderID    int64           `json:"order_id"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

type Service struct {
	store     Store
	publisher Publisher
	now       func() time.Time
}

// NewService builds a checkout service. publisher may be nil, in which case
// no events are sent.
func NewService(store Store, publisher Publisher) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	return &Service{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Totals are the amounts written on the order header.
type Totals struct {
	Computed decimal.Decimal
	Original decimal.Decimal
	Discount decimal.Decimal
	Final    decimal.Decimal
}

// ComputeTotals sums the cart at its charged prices and applies any caller
// overrides. Products are charged at their effective price and packages at
// their total price.
//
// Each override is taken independently. Without a final total override the
// final total is max(original - discount, 0), where original is the
// OriginalTotal override when given. It is not derived from the computed cart
// sum in that case.
func ComputeTotals(lines []cart.Line, req Request) Totals {
	computed := decimal.Zero
	for _, l := range lines {
		computed = computed.Add(pricing.LineTotal(l.UnitPrice, l.Quantity))
	}

	t := Totals{Computed: computed, Original: computed, Discount: decimal.Zero}
	if req.OriginalTotal != nil {
		t.Original = *req.OriginalTotal
	}
	if req.DiscountApplied != nil {
		t.Discount = *req.DiscountApplied
	}
	if req.FinalTotal != nil {
		t.Final = *req.FinalTotal
	} else {
		t.Final = pricing.NonNegative(t.Original.Sub(t.Discount))
	}
	return t
}

// ValidateAvailability checks every product line against the stock seen when
// the cart was read. The first shortage is returned.
func ValidateAvailability(lines []cart.Line) error {
	for _, l := range lines {
		if l.Kind != cart.KindProduct {
			continue
		}
		if l.Quantity > l.AvailableQuantity {
			return &InsufficientStockError{ProductID: l.RefID, ProductName: l.Name, Available: l.AvailableQuantity}
		}
	}
	return nil
}

// Checkout turns the user's cart into an order. Order header, order lines,
// stock decrements and cart removal are committed together or not at all.
func (s *Service) Checkout(ctx context.Context, req Request) (Result, error) {
	traceId := ctxmanage.GetTraceId(ctx)
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	state := StateStarted
	var (
		res    Result
		placed kafka.OrderPlacedEvent
	)
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		lines, err := tx.CartLines(ctx, req.UserID)
		if err != nil {
			return persistence("load cart", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		if err := ValidateAvailability(lines); err != nil {
			return err
		}
		state = StateValidated

		totals := ComputeTotals(lines, req)
		if req.OriginalTotal != nil && !req.OriginalTotal.Equal(totals.Computed) {
			slog.Warn("original total override differs from cart total", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, req.UserID), slog.String("Override", req.OriginalTotal.String()),
				slog.String("Computed", totals.Computed.String()))
		}
		state = StatePriced

		placedAt := s.now()
		orderID, err := tx.InsertOrder(ctx, orders.NewOrder{
			UserID:          req.UserID,
			DeliveryAddress: req.DeliveryAddress,
			OriginalTotal:   totals.Original,
			Discount:        totals.Discount,
			Total:           totals.Final,
			Status:          orders.StatusProcessing,
			PlacedAt:        placedAt,
			PaymentMethod:   req.PaymentMethod,
			PayerName:       req.PayerName,
			MaskedCard:      MaskCard(req.CardNumber),
			CouponCode:      req.CouponCode,
		})
		if err != nil {
			return persistence("insert order", err)
		}

		written, err := s.persistLines(ctx, tx, orderID, lines)
		if err != nil {
			return err
		}

		if err := tx.ClearCart(ctx, req.UserID, lines); err != nil {
			return persistence("clear cart", err)
		}
		state = StatePersisted

		res = Result{OrderID: orderID, FinalTotal: totals.Final}
		placed = kafka.OrderPlacedEvent{
			OrderID:    orderID,
			UserID:     req.UserID,
			FinalTotal: totals.Final,
			CouponCode: req.CouponCode,
			Lines:      written,
			PlacedAt:   placedAt,
		}
		return nil
	})
	if err != nil {
		if !classified(err) {
			err = persistence("checkout", err)
		}
		slog.Error("checkout aborted", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, req.UserID),
			slog.String("State", string(StateAborted)), slog.String("Reached", string(state)),
			slog.String(logkey.ERROR, err.Error()))
		return Result{}, err
	}
	state = StateCommitted

	slog.Info("order placed", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, req.UserID),
		slog.Int64(logkey.OrderID, res.OrderID), slog.String("FinalTotal", res.FinalTotal.StringFixed(2)),
		slog.String("State", string(state)))

	s.publishOrderPlaced(ctx, placed)
	return res, nil
}

// persistLines writes one order line per product and takes the stock for it.
// Package lines are replaced by their component products.
func (s *Service) persistLines(ctx context.Context, tx Tx, orderID int64, lines []cart.Line) ([]kafka.OrderLineEvent, error) {
	var written []kafka.OrderLineEvent
	for _, l := range lines {
		var products []catalog.ExpandedLine
		switch l.Kind {
		case cart.KindProduct:
			products = []catalog.ExpandedLine{{ProductID: l.RefID, Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice}}
		case cart.KindPackage:
			components, err := tx.PackageComponents(ctx, l.RefID)
			if err != nil {
				return nil, persistence("load package components", err)
			}
			if len(components) == 0 {
				slog.Warn("package has no components", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
					slog.Int64(logkey.PackageID, l.RefID))
			}
			products = catalog.Expand(components, l.Quantity)
		default:
			return nil, persistence("persist lines", fmt.Errorf("unknown cart line kind %q", l.Kind))
		}

		for _, p := range products {
			err := tx.InsertOrderLine(ctx, orders.Line{
				OrderID:   orderID,
				ProductID: p.ProductID,
				Quantity:  p.Quantity,
				UnitPrice: p.UnitPrice,
			})
			if err != nil {
				return nil, persistence("insert order line", err)
			}

			if err := s.takeStock(ctx, tx, p); err != nil {
				return nil, err
			}
			written = append(written, kafka.OrderLineEvent{ProductID: p.ProductID, Quantity: p.Quantity, UnitPrice: p.UnitPrice})
		}
	}
	return written, nil
}

func (s *Service) takeStock(ctx context.Context, tx Tx, p catalog.ExpandedLine) error {
	ok, err := tx.DecrementStock(ctx, p.ProductID, p.Quantity)
	if err != nil {
		return persistence("decrement stock", err)
	}
	if ok {
		return nil
	}

	product, err := tx.Product(ctx, p.ProductID)
	if err != nil {
		return persistence("read stock", err)
	}
	available := product.AvailableQuantity
	if product.Blocked {
		available = 0
	}
	return &InsufficientStockError{ProductID: product.ID, ProductName: product.Name, Available: available}
}

func (s *Service) publishOrderPlaced(ctx context.Context, ev kafka.OrderPlacedEvent) {
	if s.publisher == nil {
		return
	}
	traceId := ctxmanage.GetTraceId(ctx)
	ev.EventID = uuid.NewString()

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal OrderPlacedEvent", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	key := []byte(strconv.FormatInt(ev.OrderID, 10))
	if err := s.publisher.ProduceMessage(ctx, kafka.TopicOrderPlaced, key, data); err != nil {
		slog.Error("failed to produce OrderPlacedEvent", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.OrderID, ev.OrderID), slog.String(logkey.ERROR, err.Error()))
	}
}
