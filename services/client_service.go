package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"game-key-store/models"
	"game-key-store/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

type ClientService struct {
	Store *repository.Store
}

func NewClientService(store *repository.Store) *ClientService {
	return &ClientService{Store: store}
}

// CreateClientRequest is the payload of POST /api/clients. Balance is
// accepted and ignored: accounts always open at zero.
type CreateClientRequest struct {
	Login    string           `json:"login"`
	Password string           `json:"password"`
	Nickname string           `json:"nickname"`
	Balance  *decimal.Decimal `json:"balance"`
}

// normalizeHandle trims and NFC-normalises a login or nickname so visually
// identical handles collide on the uniqueness check.
func normalizeHandle(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Create opens a new account with a zero balance.
func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (*models.Client, error) {
	login := normalizeHandle(req.Login)
	nickname := normalizeHandle(req.Nickname)
	if login == "" || nickname == "" {
		return nil, fmt.Errorf("%w: login and nickname are required", ErrValidation)
	}

	taken, err := s.Store.Clients.ExistsByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if !taken {
		if taken, err = s.Store.Clients.ExistsByNickname(ctx, nickname); err != nil {
			return nil, err
		}
	}
	if taken {
		return nil, fmt.Errorf("%w: client already exists", ErrConflict)
	}

	client := &models.Client{
		Login:    login,
		Password: req.Password,
		Nickname: nickname,
		Balance:  decimal.Zero,
	}
	if err := s.Store.Clients.Insert(ctx, client); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: client already exists", ErrConflict)
		}
		return nil, fmt.Errorf("insert client: %w", err)
	}
	client.Cart = []models.Game{}
	client.Purchased = []models.Receipt{}

	log.Info().Str("component", "clients").Str("client_id", client.ID).Str("login", client.Login).Msg("client created")
	return client, nil
}

// Get returns a client with its cart and purchased list.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	if !validID(id) {
		return nil, fmt.Errorf("client %q: %w", id, ErrNotFound)
	}
	client, err := s.Store.Clients.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", id, err)
	}
	return client, nil
}

// ===== Handlers =====

// GetClientByID handles GET /api/clients/:id
func (s *ClientService) GetClientByID(c *fiber.Ctx) error {
	client, err := s.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(client)
}

// CreateClient handles POST /api/clients
func (s *ClientService) CreateClient(c *fiber.Ctx) error {
	var req CreateClientRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fmt.Errorf("%w: invalid request body", ErrValidation))
	}
	client, err := s.Create(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(client)
}
