package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client is a store account. Cart and Purchased are views derived from
// Ownership and Receipt rows; they are never written through the client.
type Client struct {
	ID       string          `json:"id" gorm:"primaryKey;size:36"`
	Login    string          `json:"login" gorm:"uniqueIndex;not null"`
	Password string          `json:"-" gorm:"not null"`
	Nickname string          `json:"nickname" gorm:"uniqueIndex;not null"`
	Balance  decimal.Decimal `json:"balance" gorm:"type:numeric(20,4);not null"`

	Cart      []Game    `json:"cart" gorm:"-"`
	Purchased []Receipt `json:"purchased" gorm:"foreignKey:ClientID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CanAfford reports whether the balance covers amount.
func (c *Client) CanAfford(amount decimal.Decimal) bool {
	return c.Balance.GreaterThanOrEqual(amount)
}
