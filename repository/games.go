package repository

import (
	"context"
	"errors"

	"game-key-store/models"

	"gorm.io/gorm"
)

// ErrNoKeys is returned by PopKey when a pool is empty.
var ErrNoKeys = errors.New("key pool is empty")

// GameRepository persists catalog entries and their key pools.
type GameRepository struct {
	db *gorm.DB
}

func keysOldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("game_keys.id ASC")
}

// Insert stores a catalog entry and its keys. Keys are inserted explicitly
// so a duplicate value fails instead of being skipped by association upsert.
func (r *GameRepository) Insert(ctx context.Context, g *models.Game) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		keys := g.Keys
		if err := tx.Omit("Keys").Create(g).Error; err != nil {
			return err
		}
		for i := range keys {
			keys[i].GameID = g.ID
		}
		if len(keys) > 0 {
			if err := tx.Create(&keys).Error; err != nil {
				return err
			}
		}
		g.Keys = keys
		return nil
	})
}

// FindByID returns the entry with its pool, oldest key first.
func (r *GameRepository) FindByID(ctx context.Context, id string) (*models.Game, error) {
	var g models.Game
	err := r.db.WithContext(ctx).Preload("Keys", keysOldestFirst).First(&g, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// LockByID loads the entry row FOR UPDATE, without its pool.
func (r *GameRepository) LockByID(ctx context.Context, id string) (*models.Game, error) {
	var g models.Game
	if err := forUpdate(r.db.WithContext(ctx)).First(&g, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// ListUnsold returns every catalog entry. Sold copies are receipts, so the
// catalog table holds only unsold entries.
func (r *GameRepository) ListUnsold(ctx context.Context) ([]models.Game, error) {
	games := []models.Game{}
	err := r.db.WithContext(ctx).
		Preload("Keys", keysOldestFirst).
		Order("created_at ASC").
		Find(&games).Error
	return games, err
}

// ExistingKeys returns the subset of values already issued, either still in
// a pool or already sold on a receipt.
func (r *GameRepository) ExistingKeys(ctx context.Context, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	db := r.db.WithContext(ctx)

	var pooled []string
	if err := db.Model(&models.GameKey{}).Where("value IN ?", values).Pluck("value", &pooled).Error; err != nil {
		return nil, err
	}
	var sold []string
	if err := db.Model(&models.Receipt{}).Where("key_value IN ?", values).Pluck("key_value", &sold).Error; err != nil {
		return nil, err
	}
	return append(pooled, sold...), nil
}

// PopKey removes and returns the oldest key of a pool. Callers hold the
// entry's row lock so concurrent sales cannot pop the same key.
func (r *GameRepository) PopKey(ctx context.Context, gameID string) (string, error) {
	db := r.db.WithContext(ctx)

	var key models.GameKey
	err := db.Where("game_id = ?", gameID).Order("id ASC").Limit(1).Find(&key).Error
	if err != nil {
		return "", err
	}
	if key.ID == 0 {
		return "", ErrNoKeys
	}
	if err := db.Delete(&key).Error; err != nil {
		return "", err
	}
	return key.Value, nil
}

// Exists reports whether a catalog entry with id exists.
func (r *GameRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
