package repository

import (
	"context"

	"game-key-store/models"

	"gorm.io/gorm"
)

// ReceiptRepository stores completed sales. Receipts are insert-only.
type ReceiptRepository struct {
	db *gorm.DB
}

func (r *ReceiptRepository) Insert(ctx context.Context, rc *models.Receipt) error {
	return r.db.WithContext(ctx).Create(rc).Error
}

func (r *ReceiptRepository) ListByClient(ctx context.Context, clientID string) ([]models.Receipt, error) {
	receipts := []models.Receipt{}
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("purchased_at ASC, id ASC").
		Find(&receipts).Error
	return receipts, err
}
