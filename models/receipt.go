// models/receipt.go
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is one completed sale: a single key transferred from a catalog
// pool to a client. Name and cost are copied at sale time. Never mutated.
type Receipt struct {
	ID       string          `json:"id" gorm:"primaryKey;size:36"`
	ClientID string          `json:"client_id" gorm:"size:36;index;not null"`
	GameID   string          `json:"game_id" gorm:"size:36;index;not null"` // catalog entry it was cut from
	Name     string          `json:"name" gorm:"not null"`
	Cost     decimal.Decimal `json:"cost" gorm:"type:numeric(20,4);not null"`
	Key      string          `json:"key" gorm:"column:key_value;uniqueIndex;not null"`

	PurchasedAt time.Time `json:"purchased_at" gorm:"autoCreateTime"`
}

func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// MarshalJSON adds the legacy `keys`/`sold` fields so a receipt reads the
// same as a sold catalog row did in earlier payloads.
func (r Receipt) MarshalJSON() ([]byte, error) {
	type plain Receipt
	return json.Marshal(struct {
		plain
		Keys []string `json:"keys"`
		Sold bool     `json:"sold"`
	}{plain: plain(r), Keys: []string{r.Key}, Sold: true})
}
