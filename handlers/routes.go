// handlers/routes.go
package handlers

import (
	"game-key-store/middleware"
	"game-key-store/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupGameRoutes registers the catalog endpoints under /api/games.
func SetupGameRoutes(api fiber.Router, gameService *services.GameService) {
	games := api.Group("/games")
	games.Get("/", gameService.GetAllGames)
	games.Post("/", gameService.CreateGame)
	games.Get("/:id", gameService.GetGameByID)
}

// SetupClientRoutes registers account, cart and purchase endpoints under /api/clients.
func SetupClientRoutes(api fiber.Router, clientService *services.ClientService, purchaseService *services.PurchaseService) {
	clients := api.Group("/clients")
	clients.Post("/", clientService.CreateClient)
	clients.Get("/:id", clientService.GetClientByID)

	clients.Post("/:clientId/cart/:gameId", purchaseService.AddGameToCart)
	clients.Delete("/:clientId/cart/:gameId", purchaseService.RemoveGameFromCart)
	clients.Post("/:clientId/purchase/:gameId", purchaseService.PurchaseGame)
	clients.Post("/:clientId/purchase-all", purchaseService.PurchaseAllGames)
	clients.Post("/:clientId/add-balance", purchaseService.AddClientBalance)
}

// Services bundles what the router needs.
type Services struct {
	DB       *gorm.DB
	Games    *services.GameService
	Clients  *services.ClientService
	Purchase *services.PurchaseService
}

// Register mounts /healthz and the /api tree on app. A non-empty gatewayToken
// gates every /api route behind GatewayAuthMiddleware.
func Register(app *fiber.App, svc Services, gatewayToken string) {
	app.Get("/healthz", Health(svc.DB))

	api := app.Group("/api")
	if gatewayToken != "" {
		api.Use(middleware.GatewayAuthMiddleware(gatewayToken))
	}
	SetupGameRoutes(api, svc.Games)
	SetupClientRoutes(api, svc.Clients, svc.Purchase)
}

// Health pings the database.
func Health(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
