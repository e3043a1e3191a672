package models

import (
	"time"
)

// OwnershipStatus is the state of one ownership row. A pair with no in-cart row is "absent".
type OwnershipStatus string

const (
	OwnershipInCart    OwnershipStatus = "in_cart"
	OwnershipPurchased OwnershipStatus = "purchased"
)

// Ownership records where a catalog game stands for one client. A pair has
// at most one in-cart row; every completed sale leaves its own purchased row,
// so the same game can be bought again.
type Ownership struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	ClientID  string          `gorm:"size:36;not null;index;uniqueIndex:idx_ownership_cart,where:status = 'in_cart'" json:"client_id"`
	GameID    string          `gorm:"size:36;not null;index;uniqueIndex:idx_ownership_cart,where:status = 'in_cart'" json:"game_id"`
	Status    OwnershipStatus `gorm:"size:16;not null;index" json:"status"`
	ReceiptID *string         `gorm:"size:36" json:"receipt_id,omitempty"` // set once purchased

	Game Game `gorm:"foreignKey:GameID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
