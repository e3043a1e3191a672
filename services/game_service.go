package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"game-key-store/models"
	"game-key-store/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GameService struct {
	Store *repository.Store
}

func NewGameService(store *repository.Store) *GameService {
	return &GameService{Store: store}
}

// CreateGameRequest is the payload of POST /api/games. Sold is accepted
// for compatibility and ignored: new entries are always unsold.
type CreateGameRequest struct {
	Name *string          `json:"name"`
	Cost *decimal.Decimal `json:"cost"`
	Keys []string         `json:"keys"`
	Sold bool             `json:"sold"`
}

var errMissingGameFields = fmt.Errorf("%w: Name, Cost, and at least one Key are required fields", ErrValidation)

func (r CreateGameRequest) validate() ([]string, error) {
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" || r.Cost == nil || len(r.Keys) == 0 {
		return nil, errMissingGameFields
	}
	if r.Cost.IsNegative() {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}
	keys := make([]string, 0, len(r.Keys))
	seen := make(map[string]struct{}, len(r.Keys))
	for _, k := range r.Keys {
		if strings.TrimSpace(k) == "" {
			return nil, errMissingGameFields
		}
		if strings.TrimSpace(k) != k {
			return nil, fmt.Errorf("%w: key %q has leading or trailing whitespace", ErrValidation, k)
		}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("%w: key %q is listed more than once", ErrConflict, k)
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

// Create validates and stores a new catalog entry.
func (s *GameService) Create(ctx context.Context, req CreateGameRequest) (*models.Game, error) {
	keys, err := req.validate()
	if err != nil {
		return nil, err
	}

	existing, err := s.Store.Games.ExistingKeys(ctx, keys)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: One or more keys already exist in another game", ErrConflict)
	}

	name := strings.TrimSpace(*req.Name)
	game := &models.Game{
		Name: name,
		Slug: slug.Make(name),
		Cost: *req.Cost,
		Keys: make([]models.GameKey, len(keys)),
	}
	for i, k := range keys {
		game.Keys[i] = models.GameKey{Value: k}
	}

	if err := s.Store.Games.Insert(ctx, game); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: One or more keys already exist in another game", ErrConflict)
		}
		return nil, fmt.Errorf("insert game: %w", err)
	}

	log.Info().Str("component", "catalog").Str("game_id", game.ID).Str("name", game.Name).
		Int("keys", game.Stock()).Msg("game created")
	return game, nil
}

// Get returns a catalog entry by id.
func (s *GameService) Get(ctx context.Context, id string) (*models.Game, error) {
	if !validID(id) {
		return nil, fmt.Errorf("game %q: %w", id, ErrNotFound)
	}
	game, err := s.Store.Games.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", id, err)
	}
	return game, nil
}

// List returns every unsold catalog entry.
func (s *GameService) List(ctx context.Context) ([]models.Game, error) {
	return s.Store.Games.ListUnsold(ctx)
}

// ===== Handlers =====

// CreateGame handles POST /api/games
func (s *GameService) CreateGame(c *fiber.Ctx) error {
	var req CreateGameRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fmt.Errorf("%w: invalid request body", ErrValidation))
	}
	game, err := s.Create(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(game)
}

// GetAllGames handles GET /api/games
func (s *GameService) GetAllGames(c *fiber.Ctx) error {
	games, err := s.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(games)
}

// GetGameByID handles GET /api/games/:id
func (s *GameService) GetGameByID(c *fiber.Ctx) error {
	game, err := s.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(game)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
