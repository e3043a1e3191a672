package services

import (
	"context"
	"testing"

	"game-key-store/models"
	"game-key-store/repository"
	"game-key-store/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *repository.Store
	games    *GameService
	clients  *ClientService
	purchase *PurchaseService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewStore(testutil.NewDB(t))
	return &fixture{
		store:    store,
		games:    NewGameService(store),
		clients:  NewClientService(store),
		purchase: NewPurchaseService(store),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) game(t *testing.T, name, cost string, keys ...string) *models.Game {
	t.Helper()
	c := dec(cost)
	g, err := f.games.Create(context.Background(), CreateGameRequest{Name: &name, Cost: &c, Keys: keys})
	require.NoError(t, err)
	return g
}

func (f *fixture) client(t *testing.T, login, balance string) *models.Client {
	t.Helper()
	c, err := f.clients.Create(context.Background(), CreateClientRequest{Login: login, Password: "pw", Nickname: login + "_n"})
	require.NoError(t, err)
	if b := dec(balance); b.IsPositive() {
		_, err := f.purchase.AddBalance(context.Background(), c.ID, b)
		require.NoError(t, err)
	}
	return c
}

func (f *fixture) reload(t *testing.T, clientID string) *models.Client {
	t.Helper()
	c, err := f.clients.Get(context.Background(), clientID)
	require.NoError(t, err)
	return c
}

func (f *fixture) pool(t *testing.T, gameID string) []string {
	t.Helper()
	g, err := f.games.Get(context.Background(), gameID)
	require.NoError(t, err)
	return g.KeyValues()
}
