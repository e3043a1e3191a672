package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"game-key-store/repository"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ReportSink stores a finished report. utils.R2Sink satisfies it.
type ReportSink interface {
	Put(ctx context.Context, key string, body []byte) error
}

type GameStock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Cost  decimal.Decimal `json:"cost"`
	Stock int             `json:"stock"`
}

// InventorySnapshot is the catalog's key stock at one point in time.
type InventorySnapshot struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Games       []GameStock `json:"games"`
	LowStock    []string    `json:"low_stock"`
}

// InventoryReporter periodically snapshots key stock, warns about pools
// running low and optionally uploads the snapshot.
type InventoryReporter struct {
	store     *repository.Store
	sink      ReportSink // nil: log only
	threshold int
	now       func() time.Time
}

func NewInventoryReporter(store *repository.Store, sink ReportSink, threshold int) *InventoryReporter {
	return &InventoryReporter{
		store:     store,
		sink:      sink,
		threshold: threshold,
		now:       time.Now,
	}
}

// ReportKey is the object key a snapshot taken at t is uploaded under.
func ReportKey(t time.Time) string {
	return fmt.Sprintf("reports/inventory/%s.json", t.UTC().Format(time.RFC3339))
}

// RunOnce builds one snapshot and ships it to the sink, if any.
func (r *InventoryReporter) RunOnce(ctx context.Context) (*InventorySnapshot, error) {
	games, err := r.store.Games.ListUnsold(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	snap := &InventorySnapshot{
		GeneratedAt: r.now().UTC(),
		Games:       make([]GameStock, 0, len(games)),
		LowStock:    []string{},
	}
	for _, g := range games {
		stock := g.Stock()
		snap.Games = append(snap.Games, GameStock{ID: g.ID, Name: g.Name, Cost: g.Cost, Stock: stock})
		if stock < r.threshold {
			snap.LowStock = append(snap.LowStock, g.ID)
			log.Warn().Str("component", "inventory").Str("game_id", g.ID).Str("name", g.Name).
				Int("stock", stock).Int("threshold", r.threshold).Msg("key pool running low")
		}
	}

	log.Info().Str("component", "inventory").Int("games", len(snap.Games)).
		Int("low_stock", len(snap.LowStock)).Msg("inventory snapshot built")

	if r.sink == nil {
		return snap, nil
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	key := ReportKey(snap.GeneratedAt)
	if err := r.sink.Put(ctx, key, body); err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	log.Info().Str("component", "inventory").Str("key", key).Msg("inventory report uploaded")
	return snap, nil
}

// Start schedules RunOnce every interval until ctx is done. The returned
// function stops the scheduler and waits for a running report to finish.
func (r *InventoryReporter) Start(ctx context.Context, interval time.Duration) (func() error, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := r.RunOnce(ctx); err != nil {
				log.Error().Err(err).Str("component", "inventory").Msg("inventory report failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule inventory report: %w", err)
	}

	sched.Start()
	log.Info().Str("component", "inventory").Dur("interval", interval).Msg("inventory reporter started")
	return sched.Shutdown, nil
}
