// Package catalog exposes the purchasable item kinds behind one interface so
// that pricing and order assembly select the kind once per line and never
// branch on the item type again.
package catalog

import (
	"context"
	"fmt"

	"travel-checkout/internal/model"
	"travel-checkout/internal/repository"

	"github.com/jackc/pgx/v5"
)

// Kind reads and reserves one type of catalog item.
type Kind interface {
	// Type returns the item type this kind serves.
	Type() model.ItemType

	// Resolve loads the item. A missing item is ErrItemNotFound naming the
	// item; an inactive item is returned as is and left to the caller.
	Resolve(ctx context.Context, id int64) (*model.CatalogItem, error)

	// Reserve takes qty units out of stock inside tx. It fails with
	// ErrInsufficientStock when fewer than qty remain.
	Reserve(ctx context.Context, tx pgx.Tx, id int64, qty int) error

	// Release puts qty units back into stock inside tx.
	Release(ctx context.Context, tx pgx.Tx, id int64, qty int) error
}

// stockKind holds the stock handling shared by every kind.
type stockKind struct {
	itemType model.ItemType
	repo     repository.CatalogRepository
}

func (k stockKind) Type() model.ItemType {
	return k.itemType
}

func (k stockKind) Reserve(ctx context.Context, tx pgx.Tx, id int64, qty int) error {
	ok, err := k.repo.DecrementStock(ctx, tx, k.itemType, id, qty)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	if !ok {
		return model.ErrInsufficientStock.With(model.ItemSubject(k.itemType, id))
	}
	return nil
}

func (k stockKind) Release(ctx context.Context, tx pgx.Tx, id int64, qty int) error {
	if err := k.repo.RestoreStock(ctx, tx, k.itemType, id, qty); err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}

func (k stockKind) notFound(id int64) error {
	return model.ErrItemNotFound.With(model.ItemSubject(k.itemType, id))
}

type attractionKind struct{ stockKind }

// NewAttractionKind serves attraction tickets.
func NewAttractionKind(repo repository.CatalogRepository) Kind {
	return attractionKind{stockKind{itemType: model.ItemTypeAttraction, repo: repo}}
}

func (k attractionKind) Resolve(ctx context.Context, id int64) (*model.CatalogItem, error) {
	a, err := k.repo.GetAttraction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attraction: %w", err)
	}
	if a == nil {
		return nil, k.notFound(id)
	}
	return &model.CatalogItem{
		Type:   model.ItemTypeAttraction,
		ID:     a.ID,
		Name:   a.Name,
		Price:  a.TicketPrice,
		Stock:  a.TicketStock,
		Status: a.Status,
	}, nil
}

type hotelRoomKind struct{ stockKind }

// NewHotelRoomKind serves hotel room types.
func NewHotelRoomKind(repo repository.CatalogRepository) Kind {
	return hotelRoomKind{stockKind{itemType: model.ItemTypeHotelRoom, repo: repo}}
}

func (k hotelRoomKind) Resolve(ctx context.Context, id int64) (*model.CatalogItem, error) {
	h, err := k.repo.GetHotelRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hotel room: %w", err)
	}
	if h == nil {
		return nil, k.notFound(id)
	}
	return &model.CatalogItem{
		Type:   model.ItemTypeHotelRoom,
		ID:     h.ID,
		Name:   h.RoomType,
		Price:  h.Price,
		Stock:  h.Stock,
		Status: h.Status,
	}, nil
}

type productKind struct{ stockKind }

// NewProductKind serves products. Products are the only kind that snapshots
// an image and a code.
func NewProductKind(repo repository.CatalogRepository) Kind {
	return productKind{stockKind{itemType: model.ItemTypeProduct, repo: repo}}
}

func (k productKind) Resolve(ctx context.Context, id int64) (*model.CatalogItem, error) {
	p, err := k.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product: %w", err)
	}
	if p == nil {
		return nil, k.notFound(id)
	}
	return &model.CatalogItem{
		Type:       model.ItemTypeProduct,
		ID:         p.ID,
		Name:       p.Name,
		Image:      model.FirstImage(p.Images),
		Code:       p.Code,
		CategoryID: p.CategoryID,
		Price:      p.Price,
		Stock:      p.Stock,
		Status:     p.Status,
	}, nil
}

// Reserve also counts the units as sold. Products are the only kind that
// counts sales.
func (k productKind) Reserve(ctx context.Context, tx pgx.Tx, id int64, qty int) error {
	if err := k.stockKind.Reserve(ctx, tx, id, qty); err != nil {
		return err
	}
	if err := k.repo.AddSales(ctx, tx, id, qty); err != nil {
		return fmt.Errorf("failed to record sales: %w", err)
	}
	return nil
}
