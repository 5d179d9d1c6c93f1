package model

import "time"

// User is the subset of the account record checkout depends on.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Nickname     string    `json:"nickname" db:"nickname"`
	IsFirstOrder bool      `json:"isFirstOrder" db:"is_first_order"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
