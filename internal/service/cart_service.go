package service

import (
	"context"
	"fmt"

	"travel-checkout/internal/catalog"
	"travel-checkout/internal/model"
	"travel-checkout/internal/repository"

	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	registry *catalog.Registry
	cartRepo repository.CartRepository
	logger   zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(registry *catalog.Registry, cartRepo repository.CartRepository, logger zerolog.Logger) CartService {
	return &cartService{
		registry: registry,
		cartRepo: cartRepo,
		logger:   logger.With().Str("service", "cart").Logger(),
	}
}

// AddToCart checks the item is on sale and that its stock covers the merged
// quantity, then adds it to the cart.
func (s *cartService) AddToCart(ctx context.Context, userID int64, req *model.AddCartItemRequest) (*model.CartItem, error) {
	if req == nil || req.Quantity < 1 {
		return nil, model.ErrInvalidRequest.Withf("quantity must be at least 1")
	}

	kind, err := s.registry.Kind(req.ItemType)
	if err != nil {
		return nil, err
	}

	item, err := kind.Resolve(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active() {
		return nil, model.ErrItemUnavailable.With(item.Subject())
	}

	existing, err := s.cartRepo.GetByUserAndItem(ctx, userID, req.ItemType, req.ItemID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to read cart entry")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	merged := req.Quantity
	if existing != nil {
		merged += existing.Quantity
	}
	if item.Stock < merged {
		s.logger.Warn().
			Int64("user_id", userID).
			Str("item", item.Subject()).
			Int("requested", merged).
			Int("stock", item.Stock).
			Msg("cart quantity exceeds stock")
		return nil, model.ErrInsufficientStock.With(item.Subject())
	}

	entry := &model.CartItem{
		UserID:   userID,
		ItemType: req.ItemType,
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
	}
	if err := s.cartRepo.Upsert(ctx, entry); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to upsert cart entry")
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Int64("cart_item_id", entry.ID).
		Int("quantity", entry.Quantity).
		Msg("cart entry saved")

	return entry, nil
}

func (s *cartService) ListCart(ctx context.Context, userID int64) ([]model.CartItem, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list cart")
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	if items == nil {
		items = []model.CartItem{}
	}
	return items, nil
}

// ownedEntry loads a cart entry and checks it belongs to the user.
func (s *cartService) ownedEntry(ctx context.Context, userID, cartItemID int64) (*model.CartItem, error) {
	entry, err := s.cartRepo.GetByID(ctx, cartItemID)
	if err != nil {
		s.logger.Error().Err(err).Int64("cart_item_id", cartItemID).Msg("failed to read cart entry")
		return nil, fmt.Errorf("failed to read cart entry: %w", err)
	}
	if entry == nil {
		return nil, model.ErrCartItemNotFound.With(model.CartSubject(cartItemID))
	}
	if entry.UserID != userID {
		s.logger.Warn().
			Int64("user_id", userID).
			Int64("cart_item_id", cartItemID).
			Msg("cart entry belongs to another user")
		return nil, model.ErrForbidden.With(model.CartSubject(cartItemID))
	}
	return entry, nil
}

// UpdateCartQuantity sets an entry's quantity outright. The item must still
// be on sale with stock covering the new quantity.
func (s *cartService) UpdateCartQuantity(ctx context.Context, userID, cartItemID int64, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		return nil, model.ErrInvalidRequest.Withf("quantity must be at least 1")
	}

	entry, err := s.ownedEntry(ctx, userID, cartItemID)
	if err != nil {
		return nil, err
	}

	kind, err := s.registry.Kind(entry.ItemType)
	if err != nil {
		return nil, err
	}
	item, err := kind.Resolve(ctx, entry.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active() {
		return nil, model.ErrItemUnavailable.With(item.Subject())
	}
	if item.Stock < quantity {
		s.logger.Warn().
			Int64("user_id", userID).
			Str("item", item.Subject()).
			Int("requested", quantity).
			Int("stock", item.Stock).
			Msg("cart quantity exceeds stock")
		return nil, model.ErrInsufficientStock.With(item.Subject())
	}

	updated, err := s.cartRepo.UpdateQuantity(ctx, userID, cartItemID, quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to update cart entry: %w", err)
	}
	// Removed between the read and the update.
	if updated == nil {
		return nil, model.ErrCartItemNotFound.With(model.CartSubject(cartItemID))
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Int64("cart_item_id", cartItemID).
		Int("quantity", quantity).
		Msg("cart quantity updated")

	return updated, nil
}

// RemoveFromCart deletes one of the user's entries.
func (s *cartService) RemoveFromCart(ctx context.Context, userID, cartItemID int64) error {
	if _, err := s.ownedEntry(ctx, userID, cartItemID); err != nil {
		return err
	}

	deleted, err := s.cartRepo.Delete(ctx, userID, cartItemID)
	if err != nil {
		s.logger.Error().Err(err).Int64("cart_item_id", cartItemID).Msg("failed to delete cart entry")
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	if !deleted {
		return model.ErrCartItemNotFound.With(model.CartSubject(cartItemID))
	}
	return nil
}
