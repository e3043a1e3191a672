package repository

import (
	"context"

	"game-key-store/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClientRepository persists client accounts.
type ClientRepository struct {
	db *gorm.DB
}

func (r *ClientRepository) Insert(ctx context.Context, c *models.Client) error {
	return r.db.WithContext(ctx).Omit("Purchased").Create(c).Error
}

// FindByID loads a client with its cart and purchased receipts.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	db := r.db.WithContext(ctx)

	var c models.Client
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	purchased, err := (&ReceiptRepository{db: r.db}).ListByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Purchased = purchased

	cart := []models.Game{}
	err = db.Model(&models.Game{}).
		Joins("JOIN ownerships ON ownerships.game_id = games.id").
		Where("ownerships.client_id = ? AND ownerships.status = ?", id, models.OwnershipInCart).
		Order("ownerships.created_at ASC, ownerships.id ASC").
		Preload("Keys", keysOldestFirst).
		Find(&cart).Error
	if err != nil {
		return nil, err
	}
	c.Cart = cart
	return &c, nil
}

// LockByID loads the bare client row FOR UPDATE.
func (r *ClientRepository) LockByID(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	if err := forUpdate(r.db.WithContext(ctx)).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *ClientRepository) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	return r.exists(ctx, "login = ?", login)
}

func (r *ClientRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	return r.exists(ctx, "nickname = ?", nickname)
}

func (r *ClientRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Client{}).Where(query, arg).Count(&count).Error
	return count > 0, err
}

// UpdateBalance writes a new balance for one client.
func (r *ClientRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Update("balance", balance)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
