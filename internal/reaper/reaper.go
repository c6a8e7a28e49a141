// Package reaper empties a mailbox trash folder in bounded batches and
// repeats the cleanup on a fixed interval until cancelled.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaronromeo/trashreaper/internal/config"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	outcomeSuccess     = "success"
	outcomeAuthError   = "auth_error"
	outcomeConnError   = "connection_error"
	outcomeBatchFailed = "batch_failed"
	outcomeError       = "error"
	outcomeInterrupted = "interrupted"
)

// CycleResult summarises one cleanup pass.
type CycleResult struct {
	Deleted int
	Total   int
	Batches int
}

// Option configures a Reaper.
type Option func(*Reaper)

// Reaper owns the connect, list, delete, sleep loop for one mailbox.
type Reaper struct {
	connector Connector
	cfg       config.Config
	log       *slog.Logger
	progress  ProgressReporter
	announcer Announcer
	sleep     func(ctx context.Context, d time.Duration) error

	tracer  trace.Tracer
	metrics *instruments
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reaper) {
		r.log = logger
	}
}

// WithProgress replaces the default per-batch log line.
func WithProgress(progress ProgressReporter) Option {
	return func(r *Reaper) {
		r.progress = progress
	}
}

// WithAnnouncer reports the outcome of every finished cycle.
func WithAnnouncer(announcer Announcer) Option {
	return func(r *Reaper) {
		r.announcer = announcer
	}
}

// WithSleep replaces the interruptible wait used between cycles and retries.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Reaper) {
		r.sleep = sleep
	}
}

// New returns a Reaper that opens sessions through connector. It rejects
// batch and retry limits that config.ValidateLimits refuses.
func New(connector Connector, cfg config.Config, opts ...Option) (*Reaper, error) {
	if connector == nil {
		return nil, errors.New("requires connector")
	}
	if err := config.ValidateLimits(cfg); err != nil {
		return nil, err
	}

	r := &Reaper{
		connector: connector,
		cfg:       cfg,
		sleep:     sleepContext,
		tracer:    defaultTracer(),
		metrics:   defaultInstruments(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.log == nil {
		r.log = slog.Default()
	}
	if r.progress == nil {
		r.progress = LogProgress{Log: r.log}
	}
	return r, nil
}

// RunForever runs cycles separated by the configured check interval until ctx
// is cancelled. Only an authentication failure ends the loop early; every other
// cycle error is logged and retried on the next cycle.
func (r *Reaper) RunForever(ctx context.Context) error {
	interval := r.cfg.Interval()
	r.log.Info("starting trash reaper", "check_interval", interval.String(), "batch_size", r.cfg.BatchSize)

	for {
		if ctx.Err() != nil {
			r.log.Info("stopped by signal")
			return nil
		}

		if _, err := r.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				r.log.Info("stopped by signal")
				return nil
			}
			if IsAuthError(err) {
				return err
			}
		}

		r.log.Info("waiting before next run", "check_interval", interval.String())
		if err := r.sleep(ctx, interval); err != nil {
			r.log.Info("stopped by signal")
			return nil
		}
	}
}

// RunOnce opens a session, runs a single cycle and closes the session again.
func (r *Reaper) RunOnce(ctx context.Context) (CycleResult, error) {
	log := r.log.With("cycle_id", uuid.NewString())

	session, err := r.connector.Connect(ctx)
	if err != nil {
		r.finish(ctx, log, CycleResult{}, err)
		return CycleResult{}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("failed to close session", slog.Any("error", err))
		}
	}()

	result, err := r.runCycle(ctx, log, session)
	r.finish(ctx, log, result, err)
	return result, err
}

// RunCycle deletes every message currently in the trash of an established
// session. Batches are processed in listing order; a batch that still fails
// after MaxRetries extra attempts aborts the cycle.
func (r *Reaper) RunCycle(ctx context.Context, session Session) (CycleResult, error) {
	return r.runCycle(ctx, r.log, session)
}

func (r *Reaper) runCycle(ctx context.Context, log *slog.Logger, session Session) (CycleResult, error) {
	ctx, span := r.tracer.Start(ctx, "reaper.cycle")
	defer span.End()

	ids, err := session.ListTrashMessageIDs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list trash")
		return CycleResult{}, fmt.Errorf("list trash: %w", err)
	}

	total := len(ids)
	result := CycleResult{Total: total}
	span.SetAttributes(attribute.Int("trash.total", total))
	if total == 0 {
		log.Info("trash is already empty")
		return result, nil
	}

	log.Info("found messages to delete", "total", total, "batch_size", r.cfg.BatchSize)
	for index, batch := range Batches(ids, r.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := r.deleteBatch(ctx, log, session, index, batch); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "delete batch")
			return result, err
		}

		result.Deleted += len(batch)
		result.Batches++
		r.metrics.deleted.Add(ctx, int64(len(batch)))
		r.progress.Report(result.Deleted, total)
	}

	span.SetAttributes(attribute.Int("trash.deleted", result.Deleted))
	return result, nil
}

func (r *Reaper) deleteBatch(ctx context.Context, log *slog.Logger, session Session, index int, batch []uint32) error {
	ctx, span := r.tracer.Start(ctx, "reaper.batch", trace.WithAttributes(
		attribute.Int("batch.index", index),
		attribute.Int("batch.size", len(batch)),
	))
	defer span.End()

	attempts := r.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := r.prepareRetry(ctx, log, session); err != nil {
				return err
			}
		}

		lastErr = deleteAndExpunge(ctx, session, batch)
		if lastErr == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		r.metrics.failedAttempts.Add(ctx, 1)
		log.Warn("batch attempt failed",
			"batch", index,
			"attempt", attempt,
			"max_attempts", attempts,
			slog.Any("error", lastErr),
		)
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "retries exhausted")
	return &BatchDeletionError{BatchIndex: index, Attempts: attempts, Err: lastErr}
}

func (r *Reaper) prepareRetry(ctx context.Context, log *slog.Logger, session Session) error {
	if delay := r.cfg.RetryDelayDuration(); delay > 0 {
		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}
	if recoverer, ok := session.(Recoverer); ok {
		if err := recoverer.Recover(ctx); err != nil {
			log.Warn("failed to recover session before retry", slog.Any("error", err))
		}
	}
	return ctx.Err()
}

func deleteAndExpunge(ctx context.Context, session Session, batch []uint32) error {
	if err := session.DeleteMessages(ctx, batch); err != nil {
		return fmt.Errorf("mark deleted: %w", err)
	}
	if err := session.ExpungeDeleted(ctx); err != nil {
		return fmt.Errorf("expunge: %w", err)
	}
	return nil
}

func (r *Reaper) finish(ctx context.Context, log *slog.Logger, result CycleResult, err error) {
	outcome := classify(ctx, err)
	r.metrics.cycles.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	switch outcome {
	case outcomeSuccess:
		if result.Total > 0 {
			log.Info("cycle completed", "deleted", result.Deleted, "batches", result.Batches)
		}
	case outcomeInterrupted:
		log.Info("cycle interrupted", "deleted", result.Deleted, "total", result.Total)
		return
	case outcomeAuthError:
		log.Error("authentication failed, giving up", slog.Any("error", err))
	default:
		log.Error("cycle failed",
			"outcome", outcome,
			"deleted", result.Deleted,
			"total", result.Total,
			slog.Any("error", err),
		)
	}

	if r.announcer == nil {
		return
	}
	if aerr := r.announcer.Announce(ctx, result, err); aerr != nil {
		log.Warn("reporting failed", slog.Any("error", aerr))
	}
}

func classify(ctx context.Context, err error) string {
	var batchErr *BatchDeletionError
	switch {
	case err == nil:
		return outcomeSuccess
	case ctx.Err() != nil:
		return outcomeInterrupted
	case IsAuthError(err):
		return outcomeAuthError
	case errors.As(err, &batchErr):
		return outcomeBatchFailed
	case IsConnectionError(err):
		return outcomeConnError
	default:
		return outcomeError
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
