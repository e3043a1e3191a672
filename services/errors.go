package services

import (
	"errors"

	"game-key-store/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("invalid input")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrOutOfStock        = errors.New("no keys available")
	ErrNotInCart         = errors.New("game is not in cart")
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOutOfStock):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrNotInCart):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as {"error": <status text>, "message": <detail>}.
// Internal errors are logged and their detail is not leaked.
func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		msg = "internal error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   utils.StatusMessage(status),
		"message": msg,
	})
}
