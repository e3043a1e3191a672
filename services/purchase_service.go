package services

import (
	"context"
	"errors"
	"fmt"

	"game-key-store/models"
	"game-key-store/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PurchaseService drives the per-(client, game) state machine:
// absent -> in_cart -> purchased, with in_cart -> absent on removal. A
// purchase leaves the pair free to be carted and bought again.
//
// Every operation runs in one transaction that locks the client row first
// and catalog rows after it in ascending id order.
type PurchaseService struct {
	Store *repository.Store
}

func NewPurchaseService(store *repository.Store) *PurchaseService {
	return &PurchaseService{Store: store}
}

// CheckoutResult describes what a whole-cart purchase did.
type CheckoutResult struct {
	Receipts []models.Receipt
	Skipped  []string // game ids left unpurchased because their pool was empty
	Charged  decimal.Decimal
}

func lockClient(ctx context.Context, tx *repository.Store, id string) (*models.Client, error) {
	if !validID(id) {
		return nil, fmt.Errorf("client %q: %w", id, ErrNotFound)
	}
	client, err := tx.Clients.LockByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", id, err)
	}
	return client, nil
}

func requireGame(ctx context.Context, tx *repository.Store, id string) error {
	if !validID(id) {
		return fmt.Errorf("game %q: %w", id, ErrNotFound)
	}
	ok, err := tx.Games.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddToCart puts a game in the client's cart. Adding a game that is already
// in the cart is a no-op; earlier purchases of it do not matter.
func (s *PurchaseService) AddToCart(ctx context.Context, clientID, gameID string) error {
	return s.Store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := lockClient(ctx, tx, clientID); err != nil {
			return err
		}
		if err := requireGame(ctx, tx, gameID); err != nil {
			return err
		}

		_, ok, err := tx.Ownerships.InCart(ctx, clientID, gameID)
		if err != nil || ok {
			return err
		}
		return tx.Ownerships.AddToCart(ctx, clientID, gameID)
	})
}

// RemoveFromCart takes a game out of the cart. The game must be in the cart.
func (s *PurchaseService) RemoveFromCart(ctx context.Context, clientID, gameID string) error {
	return s.Store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := lockClient(ctx, tx, clientID); err != nil {
			return err
		}
		if err := requireGame(ctx, tx, gameID); err != nil {
			return err
		}

		o, ok, err := tx.Ownerships.InCart(ctx, clientID, gameID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("game %s: %w", gameID, ErrNotInCart)
		}
		return tx.Ownerships.Remove(ctx, o)
	})
}

// sell pops one key from the locked catalog entry, records the receipt and
// marks the pair purchased. It does not touch the balance.
func sell(ctx context.Context, tx *repository.Store, clientID string, game *models.Game, o models.Ownership) (*models.Receipt, error) {
	key, err := tx.Games.PopKey(ctx, game.ID)
	if errors.Is(err, repository.ErrNoKeys) {
		return nil, fmt.Errorf("game %s: %w", game.ID, ErrOutOfStock)
	}
	if err != nil {
		return nil, fmt.Errorf("pop key: %w", err)
	}

	receipt := &models.Receipt{
		ClientID: clientID,
		GameID:   game.ID,
		Name:     game.Name,
		Cost:     game.Cost,
		Key:      key,
	}
	if err := tx.Receipts.Insert(ctx, receipt); err != nil {
		return nil, fmt.Errorf("insert receipt: %w", err)
	}
	if err := tx.Ownerships.MarkPurchased(ctx, o, receipt.ID); err != nil {
		return nil, fmt.Errorf("mark purchased: %w", err)
	}
	return receipt, nil
}

// PurchaseOne buys a single game from the cart.
func (s *PurchaseService) PurchaseOne(ctx context.Context, clientID, gameID string) (*models.Receipt, error) {
	var receipt *models.Receipt
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		client, err := lockClient(ctx, tx, clientID)
		if err != nil {
			return err
		}
		if !validID(gameID) {
			return fmt.Errorf("game %q: %w", gameID, ErrNotFound)
		}
		game, err := tx.Games.LockByID(ctx, gameID)
		if err != nil {
			return fmt.Errorf("game %s: %w", gameID, err)
		}

		o, ok, err := tx.Ownerships.InCart(ctx, clientID, gameID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("game %s is not in cart: %w", gameID, ErrNotFound)
		}
		if !client.CanAfford(game.Cost) {
			return fmt.Errorf("need %s, have %s: %w", game.Cost, client.Balance, ErrInsufficientFunds)
		}

		receipt, err = sell(ctx, tx, client.ID, game, o)
		if err != nil {
			return err
		}
		return tx.Clients.UpdateBalance(ctx, client.ID, client.Balance.Sub(game.Cost))
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("component", "purchase").Str("client_id", clientID).Str("game_id", gameID).
		Str("receipt_id", receipt.ID).Str("cost", receipt.Cost.String()).Msg("game purchased")
	return receipt, nil
}

// PurchaseAll buys the whole cart. The funds check covers the full cart
// total; after it passes, games whose pool is empty are skipped without
// error. The full total is charged and the whole cart is cleared either way.
func (s *PurchaseService) PurchaseAll(ctx context.Context, clientID string) (*CheckoutResult, error) {
	result := &CheckoutResult{Receipts: []models.Receipt{}, Charged: decimal.Zero}
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		client, err := lockClient(ctx, tx, clientID)
		if err != nil {
			return err
		}
		items, err := tx.Ownerships.Cart(ctx, clientID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.Game.Cost)
		}
		if !client.CanAfford(total) {
			return fmt.Errorf("need %s, have %s: %w", total, client.Balance, ErrInsufficientFunds)
		}

		for _, item := range items {
			game, err := tx.Games.LockByID(ctx, item.GameID)
			if err != nil {
				return fmt.Errorf("game %s: %w", item.GameID, err)
			}
			receipt, err := sell(ctx, tx, client.ID, game, item)
			if errors.Is(err, ErrOutOfStock) {
				result.Skipped = append(result.Skipped, item.GameID)
				continue
			}
			if err != nil {
				return err
			}
			result.Receipts = append(result.Receipts, *receipt)
		}

		if err := tx.Clients.UpdateBalance(ctx, client.ID, client.Balance.Sub(total)); err != nil {
			return err
		}
		result.Charged = total
		return tx.Ownerships.ClearCart(ctx, clientID)
	})
	if err != nil {
		return nil, err
	}

	level := zerolog.InfoLevel
	if len(result.Skipped) > 0 {
		level = zerolog.WarnLevel
	}
	log.WithLevel(level).Str("component", "purchase").Strs("skipped", result.Skipped).Str("client_id", clientID).Int("purchased", len(result.Receipts)).
		Str("charged", result.Charged.String()).Msg("cart purchased")
	return result, nil
}

// AddBalance credits a client's balance. amount must be positive.
func (s *PurchaseService) AddBalance(ctx context.Context, clientID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	var balance decimal.Decimal
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		client, err := lockClient(ctx, tx, clientID)
		if err != nil {
			return err
		}
		balance = client.Balance.Add(amount)
		return tx.Clients.UpdateBalance(ctx, client.ID, balance)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// ===== Handlers =====

// AddGameToCart handles POST /api/clients/:clientId/cart/:gameId
func (s *PurchaseService) AddGameToCart(c *fiber.Ctx) error {
	if err := s.AddToCart(c.UserContext(), c.Params("clientId"), c.Params("gameId")); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

// RemoveGameFromCart handles DELETE /api/clients/:clientId/cart/:gameId
func (s *PurchaseService) RemoveGameFromCart(c *fiber.Ctx) error {
	if err := s.RemoveFromCart(c.UserContext(), c.Params("clientId"), c.Params("gameId")); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

// PurchaseGame handles POST /api/clients/:clientId/purchase/:gameId
func (s *PurchaseService) PurchaseGame(c *fiber.Ctx) error {
	if _, err := s.PurchaseOne(c.UserContext(), c.Params("clientId"), c.Params("gameId")); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

// PurchaseAllGames handles POST /api/clients/:clientId/purchase-all
func (s *PurchaseService) PurchaseAllGames(c *fiber.Ctx) error {
	if _, err := s.PurchaseAll(c.UserContext(), c.Params("clientId")); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

// AddClientBalance handles POST /api/clients/:clientId/add-balance?amount=
func (s *PurchaseService) AddClientBalance(c *fiber.Ctx) error {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		return writeError(c, fmt.Errorf("amount %q: %w", c.Query("amount"), ErrInvalidAmount))
	}
	if _, err := s.AddBalance(c.UserContext(), c.Params("clientId"), amount); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}
