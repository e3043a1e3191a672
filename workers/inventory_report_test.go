package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"game-key-store/models"
	"game-key-store/repository"
	"game-key-store/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	objects map[string][]byte
	err     error
}

func (m *memorySink) Put(_ context.Context, key string, body []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	return nil
}

func seed(t *testing.T, store *repository.Store, name string, keys ...string) *models.Game {
	t.Helper()
	g := &models.Game{Name: name, Cost: decimal.NewFromInt(10)}
	for _, k := range keys {
		g.Keys = append(g.Keys, models.GameKey{Value: k})
	}
	require.NoError(t, store.Games.Insert(context.Background(), g))
	return g
}

func TestRunOnceReportsLowStock(t *testing.T) {
	store := repository.NewStore(testutil.NewDB(t))
	plenty := seed(t, store, "Plenty", "p1", "p2", "p3")
	scarce := seed(t, store, "Scarce", "s1")

	sink := &memorySink{}
	r := NewInventoryReporter(store, sink, 2)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	snap, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed, snap.GeneratedAt)
	require.Len(t, snap.Games, 2)
	assert.Equal(t, []string{scarce.ID}, snap.LowStock)

	stock := map[string]int{}
	for _, g := range snap.Games {
		stock[g.ID] = g.Stock
	}
	assert.Equal(t, 3, stock[plenty.ID])
	assert.Equal(t, 1, stock[scarce.ID])

	body, ok := sink.objects["reports/inventory/2024-03-01T12:00:00Z.json"]
	require.True(t, ok)
	var uploaded InventorySnapshot
	require.NoError(t, json.Unmarshal(body, &uploaded))
	assert.Equal(t, snap.LowStock, uploaded.LowStock)
}

func TestRunOnceWithoutSink(t *testing.T) {
	store := repository.NewStore(testutil.NewDB(t))
	snap, err := NewInventoryReporter(store, nil, 5).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Games)
	assert.NotNil(t, snap.LowStock)
}

func TestRunOnceSinkFailure(t *testing.T) {
	store := repository.NewStore(testutil.NewDB(t))
	seed(t, store, "One", "o1")
	_, err := NewInventoryReporter(store, &memorySink{err: errors.New("bucket gone")}, 0).RunOnce(context.Background())
	assert.ErrorContains(t, err, "bucket gone")
}

func TestStartAndStop(t *testing.T) {
	store := repository.NewStore(testutil.NewDB(t))
	stop, err := NewInventoryReporter(store, nil, 1).Start(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.NoError(t, stop())
}
