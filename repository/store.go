// Package repository is the persistence layer: thin GORM wrappers per entity
// plus a Store that binds them to one connection or transaction.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Store groups the repositories that share one *gorm.DB handle.
type Store struct {
	db *gorm.DB

	Games      *GameRepository
	Clients    *ClientRepository
	Ownerships *OwnershipRepository
	Receipts   *ReceiptRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Games:      &GameRepository{db: db},
		Clients:    &ClientRepository{db: db},
		Ownerships: &OwnershipRepository{db: db},
		Receipts:   &ReceiptRepository{db: db},
	}
}

// DB exposes the underlying handle (health checks, migrations).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// forUpdate adds SELECT ... FOR UPDATE. Dialects without row locks ignore it.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
