package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"game-key-store/handlers"
	"game-key-store/repository"
	"game-key-store/services"
	"game-key-store/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientBody struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Cart      []gameBody      `json:"cart"`
	Purchased []receiptBody   `json:"purchased"`
	Password  *string         `json:"password"`
}

type gameBody struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
	Keys []string        `json:"keys"`
	Sold bool            `json:"sold"`
}

type receiptBody struct {
	Name string   `json:"name"`
	Keys []string `json:"keys"`
	Sold bool     `json:"sold"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newApp(t *testing.T, token string) *fiber.App {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	app := fiber.New()
	handlers.Register(app, handlers.Services{
		DB:       db,
		Games:    services.NewGameService(store),
		Clients:  services.NewClientService(store),
		Purchase: services.NewPurchaseService(store),
	}, token)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func createClient(t *testing.T, app *fiber.App, login string) clientBody {
	t.Helper()
	resp, data := do(t, app, http.MethodPost, "/api/clients",
		`{"login":"`+login+`","password":"pw","nickname":"`+login+`_n","balance":500}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	return decode[clientBody](t, data)
}

func createGame(t *testing.T, app *fiber.App, body string) gameBody {
	t.Helper()
	resp, data := do(t, app, http.MethodPost, "/api/games", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	return decode[gameBody](t, data)
}

func TestCreateAndGetClient(t *testing.T) {
	app := newApp(t, "")
	c := createClient(t, app, "alice")
	assert.NotEmpty(t, c.ID)
	assert.True(t, c.Balance.IsZero())
	assert.NotNil(t, c.Cart)
	assert.NotNil(t, c.Purchased)
	assert.Nil(t, c.Password)

	resp, data := do(t, app, http.MethodGet, "/api/clients/"+c.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, c.ID, decode[clientBody](t, data).ID)

	resp, data = do(t, app, http.MethodPost, "/api/clients", `{"login":"alice","nickname":"new"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Conflict", decode[errorBody](t, data).Error)
}

func TestUnknownResourcesAreNotFound(t *testing.T) {
	app := newApp(t, "")
	for _, path := range []string{
		"/api/clients/does-not-exist",
		"/api/games/does-not-exist",
		"/api/games/8d0e6f1a-2b3c-4d5e-8f90-a1b2c3d4e5f6",
	} {
		resp, data := do(t, app, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
		assert.Equal(t, "Not Found", decode[errorBody](t, data).Error)
	}
}

func TestCreateGameResponses(t *testing.T) {
	app := newApp(t, "")
	g := createGame(t, app, `{"name":"Portal","cost":9.99,"keys":["p1","p2"],"sold":true}`)
	assert.Equal(t, "Portal", g.Name)
	assert.True(t, decimal.RequireFromString("9.99").Equal(g.Cost))
	assert.Equal(t, []string{"p1", "p2"}, g.Keys)
	assert.False(t, g.Sold)

	resp, data := do(t, app, http.MethodPost, "/api/games", `{"name":"Portal 2","cost":5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[errorBody](t, data)
	assert.Equal(t, "Bad Request", body.Error)
	assert.Contains(t, body.Message, "Name, Cost, and at least one Key are required fields")

	resp, _ = do(t, app, http.MethodPost, "/api/games", `{"name":"Dup","cost":5,"keys":["p2"]}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/games", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = do(t, app, http.MethodGet, "/api/games", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]gameBody](t, data), 1)

	resp, data = do(t, app, http.MethodGet, "/api/games/"+g.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, g.ID, decode[gameBody](t, data).ID)
}

func TestCartAndPurchaseFlow(t *testing.T) {
	app := newApp(t, "")
	c := createClient(t, app, "bob")
	g := createGame(t, app, `{"name":"Celeste","cost":50,"keys":["k1","k2"]}`)
	base := "/api/clients/" + c.ID

	resp, data := do(t, app, http.MethodPost, base+"/add-balance?amount=100", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, data)

	resp, _ = do(t, app, http.MethodPost, base+"/purchase/"+g.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, base+"/cart/"+g.ID, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, base+"/cart/"+g.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = do(t, app, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[clientBody](t, data)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, g.ID, got.Cart[0].ID)

	resp, _ = do(t, app, http.MethodPost, base+"/purchase/"+g.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = do(t, app, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[clientBody](t, data)
	assert.True(t, decimal.NewFromInt(50).Equal(got.Balance))
	assert.Empty(t, got.Cart)
	require.Len(t, got.Purchased, 1)
	assert.Equal(t, []string{"k1"}, got.Purchased[0].Keys)
	assert.True(t, got.Purchased[0].Sold)

	resp, data = do(t, app, http.MethodGet, "/api/games/"+g.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"k2"}, decode[gameBody](t, data).Keys)

	// A second copy can be carted and bought with the remaining key.
	resp, _ = do(t, app, http.MethodPost, base+"/cart/"+g.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, app, http.MethodPost, base+"/purchase/"+g.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data = do(t, app, http.MethodGet, base, "")
	got = decode[clientBody](t, data)
	assert.True(t, got.Balance.IsZero())
	assert.Len(t, got.Purchased, 2)
}

func TestPurchaseAllEndpoint(t *testing.T) {
	app := newApp(t, "")
	c := createClient(t, app, "carol")
	a := createGame(t, app, `{"name":"A","cost":30,"keys":["a1"]}`)
	b := createGame(t, app, `{"name":"B","cost":30,"keys":["b1"]}`)
	base := "/api/clients/" + c.ID

	do(t, app, http.MethodPost, base+"/add-balance?amount=50", "")
	do(t, app, http.MethodPost, base+"/cart/"+a.ID, "")
	do(t, app, http.MethodPost, base+"/cart/"+b.ID, "")

	resp, data := do(t, app, http.MethodPost, base+"/purchase-all", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Bad Request", decode[errorBody](t, data).Error)

	do(t, app, http.MethodPost, base+"/add-balance?amount=10", "")
	resp, _ = do(t, app, http.MethodPost, base+"/purchase-all", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data = do(t, app, http.MethodGet, base, "")
	got := decode[clientBody](t, data)
	assert.True(t, got.Balance.IsZero())
	assert.Empty(t, got.Cart)
	assert.Len(t, got.Purchased, 2)
}

func TestAddBalanceRejectsBadAmounts(t *testing.T) {
	app := newApp(t, "")
	c := createClient(t, app, "dave")
	for _, q := range []string{"", "?amount=abc", "?amount=0", "?amount=-3"} {
		resp, _ := do(t, app, http.MethodPost, "/api/clients/"+c.ID+"/add-balance"+q, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}

	resp, _ := do(t, app, http.MethodPost, "/api/clients/nobody/add-balance?amount=5", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app := newApp(t, "")
	resp, data := do(t, app, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestGatewayTokenGuardsAPI(t *testing.T) {
	app := newApp(t, "s3cret")

	resp, _ := do(t, app, http.MethodGet, "/api/games", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/games", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/api/games", "", "Authorization", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
