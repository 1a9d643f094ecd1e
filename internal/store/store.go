// Package store persists pipeline output: normalized facts, filing events,
// trailing metrics, and fiscal calendars.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pitfacts/internal/db"
	"github.com/sells-group/pitfacts/internal/model"
	"github.com/sells-group/pitfacts/internal/resilience"
)

// Sink receives pipeline output. Every write is a keyed upsert, so rerunning
// an entity leaves the same rows behind.
type Sink interface {
	UpsertFacts(ctx context.Context, facts []model.FinancialFact) (int64, error)
	// UpsertEvents writes an entity's full filing history, superseded events included.
	UpsertEvents(ctx context.Context, events []model.FilingEvent) (int64, error)
	UpsertMetrics(ctx context.Context, metrics []model.TTMMetric) (int64, error)
	UpsertCalendar(ctx context.Context, cal model.FiscalCalendar) error

	// Events returns an entity's stored filing history ordered by filing date.
	Events(ctx context.Context, entityID string) ([]model.FilingEvent, error)
	// Metrics returns an entity's stored metrics ordered by metric and as-of date.
	Metrics(ctx context.Context, entityID string) ([]model.TTMMetric, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Options selects and configures a Sink.
type Options struct {
	Driver      string // postgres, sqlite, or memory
	DatabaseURL string
	SQLitePath  string
	MaxConns    int32
	BatchSize   int
	Retry       resilience.RetryConfig
}

// Open returns the Sink named by opts.Driver.
func Open(ctx context.Context, opts Options) (Sink, error) {
	switch opts.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(opts.SQLitePath)
	case "postgres":
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires store.database_url")
		}
		pool, err := db.Connect(ctx, opts.DatabaseURL, opts.MaxConns)
		if err != nil {
			return nil, err
		}
		s := NewPostgres(pool, opts.BatchSize, opts.Retry)
		s.closeFn = pool.Close
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", opts.Driver)
	}
}
