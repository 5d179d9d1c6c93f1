package model

import "time"

// CartItem is one entry of a user's cart. A user holds at most one entry
// per (item type, item id); adding the same item again merges quantities.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ItemType  ItemType  `json:"itemType" db:"item_type"`
	ItemID    int64     `json:"itemId" db:"item_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AddCartItemRequest represents the request payload for adding to the cart.
type AddCartItemRequest struct {
	ItemType ItemType `json:"itemType" validate:"required,oneof=ATTRACTION HOTEL_ROOM PRODUCT"`
	ItemID   int64    `json:"itemId" validate:"required,gt=0"`
	Quantity int      `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItemRequest sets the quantity of an existing cart entry.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}
