package repository

import (
	"context"

	"game-key-store/models"

	"gorm.io/gorm"
)

// OwnershipRepository tracks the (client, game) state machine.
type OwnershipRepository struct {
	db *gorm.DB
}

// InCart returns the in-cart row for a pair. ok is false when the game is
// not in the client's cart, whether or not it was bought before.
func (r *OwnershipRepository) InCart(ctx context.Context, clientID, gameID string) (models.Ownership, bool, error) {
	var o models.Ownership
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND game_id = ? AND status = ?", clientID, gameID, models.OwnershipInCart).
		Limit(1).
		Find(&o).Error
	if err != nil {
		return o, false, err
	}
	return o, o.ID != 0, nil
}

// AddToCart inserts an in-cart row for a pair that has none.
func (r *OwnershipRepository) AddToCart(ctx context.Context, clientID, gameID string) error {
	return r.db.WithContext(ctx).Omit("Game").Create(&models.Ownership{
		ClientID: clientID,
		GameID:   gameID,
		Status:   models.OwnershipInCart,
	}).Error
}

// Remove moves a pair back to absent.
func (r *OwnershipRepository) Remove(ctx context.Context, o models.Ownership) error {
	return r.db.WithContext(ctx).Delete(&models.Ownership{}, o.ID).Error
}

// MarkPurchased moves an in-cart pair to purchased and links the receipt.
func (r *OwnershipRepository) MarkPurchased(ctx context.Context, o models.Ownership, receiptID string) error {
	return r.db.WithContext(ctx).Model(&models.Ownership{}).
		Where("id = ? AND status = ?", o.ID, models.OwnershipInCart).
		Updates(map[string]interface{}{
			"status":     models.OwnershipPurchased,
			"receipt_id": receiptID,
		}).Error
}

// Cart returns a client's in-cart rows with their games, ordered by game id
// so callers lock catalog rows in a stable order.
func (r *OwnershipRepository) Cart(ctx context.Context, clientID string) ([]models.Ownership, error) {
	var items []models.Ownership
	err := r.db.WithContext(ctx).
		Preload("Game").
		Where("client_id = ? AND status = ?", clientID, models.OwnershipInCart).
		Order("game_id ASC").
		Find(&items).Error
	return items, err
}

// ClearCart deletes every remaining in-cart row of a client.
func (r *OwnershipRepository) ClearCart(ctx context.Context, clientID string) error {
	return r.db.WithContext(ctx).
		Where("client_id = ? AND status = ?", clientID, models.OwnershipInCart).
		Delete(&models.Ownership{}).Error
}
