package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType identifies the catalog table an order line or cart entry refers to.
type ItemType string

const (
	ItemTypeAttraction ItemType = "ATTRACTION"
	ItemTypeHotelRoom  ItemType = "HOTEL_ROOM"
	ItemTypeProduct    ItemType = "PRODUCT"
)

// StatusActive marks a catalog record as published and purchasable.
const StatusActive = 1

// Attraction represents a scenic spot sold by ticket.
type Attraction struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Images      []string        `json:"images" db:"images"`
	TicketPrice decimal.Decimal `json:"ticketPrice" db:"ticket_price"`
	TicketStock int             `json:"ticketStock" db:"ticket_stock"`
	Status      int             `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// HotelRoom represents a bookable room type of a hotel.
type HotelRoom struct {
	ID        int64           `json:"id" db:"id"`
	HotelID   int64           `json:"hotelId" db:"hotel_id"`
	RoomType  string          `json:"roomType" db:"room_type"`
	Images    []string        `json:"images" db:"images"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"`
	Status    int             `json:"status" db:"status"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// Product represents a physical souvenir or local speciality.
type Product struct {
	ID         int64           `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Code       *string         `json:"code,omitempty" db:"code"`
	CategoryID *int64          `json:"categoryId,omitempty" db:"category_id"`
	Images     []string        `json:"images" db:"images"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Stock      int             `json:"stock" db:"stock"`
	Sales      int             `json:"sales" db:"sales"`
	Status     int             `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
}

// CatalogItem is the kind-independent view of a purchasable record used
// for pricing and snapshotting.
type CatalogItem struct {
	Type       ItemType        `json:"type"`
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Image      *string         `json:"image,omitempty"`
	Code       *string         `json:"code,omitempty"`
	CategoryID *int64          `json:"categoryId,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Status     int             `json:"status"`
}

// Active reports whether the item can be purchased.
func (i *CatalogItem) Active() bool {
	return i.Status == StatusActive
}

// Subject identifies the item in error responses.
func (i *CatalogItem) Subject() string {
	return ItemSubject(i.Type, i.ID)
}

// ItemRef points at a catalog record.
type ItemRef struct {
	Type ItemType `json:"type"`
	ID   int64    `json:"id"`
}

// FirstImage returns the first entry of an image list, or nil.
func FirstImage(images []string) *string {
	if len(images) == 0 {
		return nil
	}
	img := images[0]
	return &img
}
