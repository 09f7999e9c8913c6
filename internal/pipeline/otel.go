package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crimecast/internal/infrastructure"
	"crimecast/pkg/contracts/domain"
)

const TracerName = "crimecast.pipeline"

// Stage names used for spans and the stage duration histogram
const (
	StageSeries       = "series"
	StageForecast     = "forecast"
	StageDerived      = "derived"
	StageDistribution = "distribution"
)

// runTracer instruments pipeline runs and their stages
type runTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

func newRunTracer(metrics *infrastructure.BusinessMetrics) *runTracer {
	return &runTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// traceRun creates a span for a whole pipeline run
func (rt *runTracer) traceRun(ctx context.Context, sel domain.Selection) (context.Context, trace.Span) {
	return rt.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pipeline.state", sel.State),
			attribute.String("pipeline.category", sel.Category),
			attribute.Int("pipeline.horizon", sel.Horizon),
		),
	)
}

// traceStage creates a span for one stage. The returned func ends the span,
// records the stage duration and marks the span failed when err is set.
func (rt *runTracer) traceStage(ctx context.Context, stage string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := rt.tracer.Start(ctx, "pipeline.stage."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.stage", stage)),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		infrastructure.RecordStageDuration(ctx, rt.metrics, stage, time.Since(start))
		span.End()
	}
}

// completeRun records the run outcome on the span and in metrics
func (rt *runTracer) completeRun(ctx context.Context, span trace.Span, report *domain.Report, err error, start time.Time) {
	outcome := "success"
	var kinds []string
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case len(report.Warnings) > 0:
		outcome = "partial"
		for _, w := range report.Warnings {
			kinds = append(kinds, string(w.Kind))
		}
		span.SetAttributes(attribute.StringSlice("pipeline.warnings", kinds))
	}
	span.SetAttributes(attribute.String("pipeline.outcome", outcome))
	infrastructure.RecordPipelineRun(ctx, rt.metrics, outcome, time.Since(start), kinds)
	span.End()
}
