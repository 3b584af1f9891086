package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var engineMeter = otel.Meter("github.com/chris-regnier/warden/internal/engine")

// instruments are the OTel metrics recorded per processed file.
type instruments struct {
	files      metric.Int64Counter
	violations metric.Int64Counter
	duration   metric.Float64Histogram
}

func newInstruments() instruments {
	var ins instruments
	var err error
	np := noop.Meter{}
	if ins.files, err = engineMeter.Int64Counter("warden.files",
		metric.WithDescription("Files processed"), metric.WithUnit("{file}")); err != nil {
		ins.files, _ = np.Int64Counter("warden.files")
	}
	if ins.violations, err = engineMeter.Int64Counter("warden.violations",
		metric.WithDescription("Violations reported"), metric.WithUnit("{violation}")); err != nil {
		ins.violations, _ = np.Int64Counter("warden.violations")
	}
	if ins.duration, err = engineMeter.Float64Histogram("warden.file.duration",
		metric.WithDescription("Time to process one file"), metric.WithUnit("ms")); err != nil {
		ins.duration, _ = np.Float64Histogram("warden.file.duration")
	}
	return ins
}

func (ins instruments) record(ctx context.Context, cached bool, found int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("warden.cache.hit", cached))
	ins.files.Add(ctx, 1, attrs)
	ins.violations.Add(ctx, int64(found), attrs)
	ins.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}
