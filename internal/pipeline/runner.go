package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pitfacts/internal/normalize"
	"github.com/sells-group/pitfacts/internal/resilience"
	"github.com/sells-group/pitfacts/internal/runlog"
	"github.com/sells-group/pitfacts/internal/store"
	"github.com/sells-group/pitfacts/internal/timeline"
	"github.com/sells-group/pitfacts/internal/xbrl"
)

// Failure stages.
const (
	StageSource  = "source"
	StageProcess = "process"
	StageStore   = "store"
)

// RunLog records per-entity run status. *runlog.Log implements it.
type RunLog interface {
	Start(ctx context.Context, runID uuid.UUID, entityID, snapshotVersion string) (int64, error)
	Complete(ctx context.Context, id int64, c runlog.Counts) error
	Fail(ctx context.Context, id int64, errMsg string) error
}

var _ RunLog = (*runlog.Log)(nil)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Workers int
	// RunLog is optional.
	RunLog RunLog
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID           uuid.UUID                `json:"run_id"`
	SnapshotVersion string                   `json:"snapshot_version"`
	Entities        int                      `json:"entities"`
	Succeeded       int                      `json:"succeeded"`
	Failed          []resilience.Failure     `json:"failed,omitempty"`
	Retryable       []string                 `json:"retryable,omitempty"`
	Facts           int64                    `json:"facts"`
	Events          int64                    `json:"events"`
	Metrics         int64                    `json:"metrics"`
	Discards        map[normalize.Reason]int `json:"discards,omitempty"`
	Duration        time.Duration            `json:"duration"`
}

// Runner processes many entities in parallel and writes their results.
// Entities are independent: one entity's failure never stops the others.
type Runner struct {
	pipeline *Pipeline
	source   Source
	sink     store.Sink
	opts     RunnerOptions
	index    *timeline.Index
}

// NewRunner creates a Runner.
func NewRunner(p *Pipeline, src Source, sink store.Sink, opts RunnerOptions) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{pipeline: p, source: src, sink: sink, opts: opts, index: timeline.NewIndex()}
}

// Timelines returns the timelines built so far, for as-of lookups across entities.
func (r *Runner) Timelines() *timeline.Index { return r.index }

// entityCounts is what one successful entity contributed.
type entityCounts struct {
	facts, events, metrics int64
	discards               map[normalize.Reason]int
}

// Run processes every entity. It returns an error only when ctx is cancelled;
// per-entity problems are reported in Summary.Failed.
func (r *Runner) Run(ctx context.Context, entityIDs []string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		RunID:           uuid.New(),
		SnapshotVersion: r.pipeline.SnapshotVersion(),
		Discards:        make(map[normalize.Reason]int),
	}
	log := zap.L().With(zap.String("component", "runner"), zap.String("run_id", sum.RunID.String()))

	ids := dedupeIDs(entityIDs)
	sum.Entities = len(ids)
	log.Info("run starting",
		zap.Int("entities", len(ids)),
		zap.Int("workers", r.opts.Workers),
		zap.String("snapshot_version", sum.SnapshotVersion),
	)

	failures := resilience.NewFailures()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			counts, ok := r.runEntity(gctx, sum.RunID, id, failures)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			sum.Succeeded++
			sum.Facts += counts.facts
			sum.Events += counts.events
			sum.Metrics += counts.metrics
			for reason, n := range counts.discards {
				sum.Discards[reason] += n
			}
			return nil
		})
	}

	waitErr := g.Wait()
	sum.Failed = failures.List()
	sum.Retryable = failures.Retryable()
	sum.Duration = time.Since(start)

	log.Info("run complete",
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", len(sum.Failed)),
		zap.Int64("facts", sum.Facts),
		zap.Int64("events", sum.Events),
		zap.Int64("metrics", sum.Metrics),
		zap.Duration("duration", sum.Duration),
	)

	if err := ctx.Err(); err != nil {
		return sum, eris.Wrap(err, "pipeline: run cancelled")
	}
	return sum, eris.Wrap(waitErr, "pipeline: run")
}

// runEntity processes and persists one entity, recording any failure.
func (r *Runner) runEntity(ctx context.Context, runID uuid.UUID, entityID string, failures *resilience.Failures) (entityCounts, bool) {
	log := zap.L().With(zap.String("component", "runner"), zap.String("entity", entityID))

	var logID int64
	if r.opts.RunLog != nil {
		id, err := r.opts.RunLog.Start(ctx, runID, entityID, r.pipeline.SnapshotVersion())
		if err != nil {
			log.Warn("run log start failed", zap.Error(err))
		}
		logID = id
	}

	counts, stage, err := r.processEntity(ctx, entityID)
	if err != nil {
		failures.Record(entityID, stage, err)
		log.Error("entity failed", zap.String("stage", stage), zap.Error(err))
		if logID > 0 {
			if lerr := r.opts.RunLog.Fail(ctx, logID, fmt.Sprintf("%s: %v", stage, err)); lerr != nil {
				log.Warn("run log fail update failed", zap.Error(lerr))
			}
		}
		return entityCounts{}, false
	}

	if logID > 0 {
		discards := make(map[string]int, len(counts.discards))
		for reason, n := range counts.discards {
			discards[string(reason)] = n
		}
		if lerr := r.opts.RunLog.Complete(ctx, logID, runlog.Counts{
			Facts: counts.facts, Events: counts.events, Metrics: counts.metrics, Discards: discards,
		}); lerr != nil {
			log.Warn("run log complete failed", zap.Error(lerr))
		}
	}
	return counts, true
}

// processEntity runs the stages for one entity. A panic is turned into an
// error attributed to the stage that was running.
func (r *Runner) processEntity(ctx context.Context, entityID string) (counts entityCounts, stage string, err error) {
	stage = StageSource
	defer func() {
		if p := recover(); p != nil {
			err = eris.Errorf("pipeline: panic in %s stage for %s: %v", stage, entityID, p)
		}
	}()

	doc, err := r.source.Facts(ctx, entityID)
	if err != nil {
		return counts, stage, err
	}

	stage = StageProcess
	res, err := r.pipeline.Process(entityID, doc)
	if err != nil {
		return counts, stage, err
	}
	r.index.Put(res.Timeline)

	stage = StageStore
	counts, err = r.write(ctx, res)
	return counts, stage, err
}

func (r *Runner) write(ctx context.Context, res *EntityResult) (entityCounts, error) {
	c := entityCounts{discards: res.Discards}
	var err error

	if c.facts, err = r.sink.UpsertFacts(ctx, res.Facts); err != nil {
		return c, eris.Wrapf(err, "pipeline: write facts for %s", res.EntityID)
	}
	if c.events, err = r.sink.UpsertEvents(ctx, res.Timeline.History()); err != nil {
		return c, eris.Wrapf(err, "pipeline: write events for %s", res.EntityID)
	}
	if c.metrics, err = r.sink.UpsertMetrics(ctx, res.Metrics); err != nil {
		return c, eris.Wrapf(err, "pipeline: write metrics for %s", res.EntityID)
	}
	if err := r.sink.UpsertCalendar(ctx, res.Calendar); err != nil {
		return c, eris.Wrapf(err, "pipeline: write calendar for %s", res.EntityID)
	}
	return c, nil
}

// dedupeIDs canonicalizes CIK-style identifiers and drops blanks and repeats,
// keeping first-seen order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if norm, err := xbrl.NormalizeCIK(id); err == nil {
			id = norm
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
