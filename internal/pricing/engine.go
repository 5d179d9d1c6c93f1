// Package pricing turns a checkout request into priced, stock-checked order
// lines. It reads the catalog and the cart but never writes.
package pricing

import (
	"context"
	"fmt"

	"travel-checkout/internal/catalog"
	"travel-checkout/internal/model"
	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Pricer prices checkout requests.
type Pricer interface {
	Quote(ctx context.Context, userID int64, req *model.CreateOrderRequest) (*Quote, error)
}

// Line is one priced order line. Kind is the catalog kind the item was
// resolved through; later steps reserve stock through it.
type Line struct {
	Kind         catalog.Kind
	Item         model.CatalogItem
	Quantity     int
	UnitPrice    decimal.Decimal
	Total        decimal.Decimal
	CheckInDate  *model.Date
	CheckOutDate *model.Date
	UseDate      *model.Date
}

// OrderItem snapshots the line into an order item for orderID.
func (l Line) OrderItem(orderID int64) model.OrderItem {
	return model.OrderItem{
		OrderID:      orderID,
		ItemType:     l.Item.Type,
		ItemID:       l.Item.ID,
		ItemName:     l.Item.Name,
		ItemImage:    l.Item.Image,
		ItemCode:     l.Item.Code,
		Quantity:     l.Quantity,
		Price:        l.UnitPrice,
		TotalPrice:   l.Total,
		CheckInDate:  l.CheckInDate,
		CheckOutDate: l.CheckOutDate,
		UseDate:      l.UseDate,
	}
}

// Quote is the result of pricing a request.
type Quote struct {
	Lines       []Line
	TotalAmount decimal.Decimal

	// CartIDs lists the cart entries the lines came from, empty for a
	// direct-buy request.
	CartIDs []int64
}

// candidate is an unpriced line taken from the cart or the request.
type candidate struct {
	ref          model.ItemRef
	quantity     int
	checkInDate  *model.Date
	checkOutDate *model.Date
	useDate      *model.Date
}

// Engine implements Pricer over the catalog registry and the cart store.
type Engine struct {
	registry *catalog.Registry
	cartRepo repository.CartRepository
	logger   zerolog.Logger
}

// NewEngine creates a new pricing engine.
func NewEngine(registry *catalog.Registry, cartRepo repository.CartRepository, logger zerolog.Logger) *Engine {
	return &Engine{
		registry: registry,
		cartRepo: cartRepo,
		logger:   logger.With().Str("component", "pricing").Logger(),
	}
}

// Quote resolves and prices every line of req. Exactly one of cart ids and
// explicit items must be supplied.
func (e *Engine) Quote(ctx context.Context, userID int64, req *model.CreateOrderRequest) (*Quote, error) {
	if req == nil {
		return nil, model.ErrInvalidRequest.Withf("order request is nil")
	}

	hasCart, hasItems := len(req.CartIDs) > 0, len(req.Items) > 0
	if hasCart == hasItems {
		e.logger.Warn().
			Int64("user_id", userID).
			Int("cart_ids", len(req.CartIDs)).
			Int("items", len(req.Items)).
			Msg("checkout request must name either cart entries or items")
		return nil, model.ErrInvalidRequest.Withf("exactly one of cartIds and items must be supplied")
	}

	var (
		candidates []candidate
		err        error
	)
	if hasCart {
		candidates, err = e.fromCart(ctx, userID, req.CartIDs)
	} else {
		candidates, err = fromItems(req.Items)
	}
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Lines:       make([]Line, 0, len(candidates)),
		TotalAmount: decimal.Zero,
	}
	if hasCart {
		quote.CartIDs = append([]int64(nil), req.CartIDs...)
	}

	for _, c := range candidates {
		line, err := e.price(ctx, c)
		if err != nil {
			return nil, err
		}
		quote.Lines = append(quote.Lines, line)
		quote.TotalAmount = quote.TotalAmount.Add(line.Total)
	}

	e.logger.Debug().
		Int64("user_id", userID).
		Int("lines", len(quote.Lines)).
		Str("total", quote.TotalAmount.StringFixed(2)).
		Msg("request priced")

	return quote, nil
}

func (e *Engine) price(ctx context.Context, c candidate) (Line, error) {
	subject := model.ItemSubject(c.ref.Type, c.ref.ID)
	if c.quantity < 1 {
		return Line{}, model.ErrInvalidRequest.Withf("quantity must be a positive integer").With(subject)
	}

	kind, err := e.registry.Kind(c.ref.Type)
	if err != nil {
		return Line{}, err
	}

	item, err := kind.Resolve(ctx, c.ref.ID)
	if err != nil {
		return Line{}, err
	}
	if !item.Active() {
		e.logger.Warn().Str("item", subject).Int("status", item.Status).Msg("item not on sale")
		return Line{}, model.ErrItemUnavailable.With(subject)
	}
	if item.Stock < c.quantity {
		e.logger.Warn().
			Str("item", subject).
			Int("stock", item.Stock).
			Int("quantity", c.quantity).
			Msg("insufficient stock")
		return Line{}, model.ErrInsufficientStock.With(subject)
	}

	return Line{
		Kind:         kind,
		Item:         *item,
		Quantity:     c.quantity,
		UnitPrice:    item.Price,
		Total:        item.Price.Mul(decimal.NewFromInt(int64(c.quantity))),
		CheckInDate:  c.checkInDate,
		CheckOutDate: c.checkOutDate,
		UseDate:      c.useDate,
	}, nil
}

// fromCart loads the referenced cart entries in request order. Unknown or
// repeated ids are invalid; entries of another user are forbidden.
func (e *Engine) fromCart(ctx context.Context, userID int64, ids []int64) ([]candidate, error) {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, model.ErrInvalidRequest.Withf("cart id %d is listed more than once", id)
		}
		seen[id] = struct{}{}
	}

	entries, err := e.cartRepo.GetByIDs(ctx, ids)
	if err != nil {
		e.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load cart entries")
		return nil, fmt.Errorf("failed to load cart entries: %w", err)
	}

	byID := make(map[int64]model.CartItem, len(entries))
	for _, entry := range entries {
		byID[entry.ID] = entry
	}

	candidates := make([]candidate, 0, len(ids))
	for _, id := range ids {
		entry, ok := byID[id]
		if !ok {
			return nil, model.ErrInvalidRequest.Withf("cart entry %d does not exist", id)
		}
		if entry.UserID != userID {
			e.logger.Warn().
				Int64("user_id", userID).
				Int64("cart_id", id).
				Msg("cart entry belongs to another user")
			return nil, model.ErrForbidden.With(model.CartSubject(id))
		}
		candidates = append(candidates, candidate{
			ref:      model.ItemRef{Type: entry.ItemType, ID: entry.ItemID},
			quantity: entry.Quantity,
		})
	}

	return candidates, nil
}

func fromItems(items []model.OrderItemRequest) ([]candidate, error) {
	candidates := make([]candidate, 0, len(items))
	for _, it := range items {
		if it.CheckInDate != nil && it.CheckOutDate != nil && !it.CheckOutDate.After(it.CheckInDate.Time) {
			return nil, model.ErrInvalidRequest.Withf("check-out date must be after check-in date").
				With(model.ItemSubject(it.ItemType, it.ItemID))
		}
		candidates = append(candidates, candidate{
			ref:          model.ItemRef{Type: it.ItemType, ID: it.ItemID},
			quantity:     it.Quantity,
			checkInDate:  it.CheckInDate,
			checkOutDate: it.CheckOutDate,
			useDate:      it.UseDate,
		})
	}
	return candidates, nil
}
