package reaper

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/aaronromeo/trashreaper/internal/reaper"

type instruments struct {
	deleted        metric.Int64Counter
	failedAttempts metric.Int64Counter
	cycles         metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	deleted, err := meter.Int64Counter("trashreaper.messages.deleted",
		metric.WithDescription("Messages permanently removed from the trash mailbox"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, err
	}
	failedAttempts, err := meter.Int64Counter("trashreaper.batch.attempts.failed",
		metric.WithDescription("Delete/expunge attempts that failed and were retried or abandoned"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, err
	}
	cycles, err := meter.Int64Counter("trashreaper.cycles",
		metric.WithDescription("Completed cleanup cycles by outcome"),
		metric.WithUnit("{cycle}"))
	if err != nil {
		return nil, err
	}
	return &instruments{
		deleted:        deleted,
		failedAttempts: failedAttempts,
		cycles:         cycles,
	}, nil
}

// defaultInstruments records through the global meter provider, falling back
// to no-op instruments if registration fails.
func defaultInstruments() *instruments {
	inst, err := newInstruments(otel.Meter(instrumentationName))
	if err != nil {
		inst, _ = newInstruments(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return inst
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
