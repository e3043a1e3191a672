// models/game.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Game is a catalog entry: purchasable inventory backed by a pool of unused keys.
// Sold copies live in Receipt, so every Game row is unsold.
type Game struct {
	ID   string          `json:"id" gorm:"primaryKey;size:36"`
	Name string          `json:"name" gorm:"not null"`
	Slug string          `json:"slug" gorm:"index"`
	Cost decimal.Decimal `json:"cost" gorm:"type:numeric(20,4);not null"`

	// 🔑 Key pool, oldest first
	Keys []GameKey `json:"keys" gorm:"foreignKey:GameID"`

	// Always false; kept so catalog and receipt payloads share a shape.
	Sold bool `json:"sold" gorm:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// Stock is the number of keys left in the pool.
func (g *Game) Stock() int {
	return len(g.Keys)
}

// KeyValues returns the pool as plain strings.
func (g *Game) KeyValues() []string {
	out := make([]string, len(g.Keys))
	for i, k := range g.Keys {
		out[i] = k.Value
	}
	return out
}

// GameKey is one unused license key. Values are unique across all pools.
type GameKey struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	GameID string `gorm:"size:36;index;not null"`
	Value  string `gorm:"uniqueIndex;not null"`
}

// MarshalJSON renders a key as its bare value.
func (k GameKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value)
}

func (k *GameKey) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &k.Value)
}
