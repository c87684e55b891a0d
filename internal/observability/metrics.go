package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the custom pipeline metrics. A zero-value Metrics is
// safe to use; every recorder is a no-op until initialized.
type Metrics struct {
	StageDuration  metric.Float64Histogram
	StageFailures  metric.Int64Counter
	PipelineRuns   metric.Int64Counter
	TokensConsumed metric.Int64Histogram
	RateLimitHits  metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.StageDuration, err = meter.Float64Histogram(
		"skilllink_stage_duration_seconds",
		metric.WithDescription("Time spent in each pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage duration metric: %w", err)
	}

	m.StageFailures, err = meter.Int64Counter(
		"skilllink_stage_failures_total",
		metric.WithDescription("Total number of failed pipeline stages"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage failure metric: %w", err)
	}

	m.PipelineRuns, err = meter.Int64Counter(
		"skilllink_pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline runs metric: %w", err)
	}

	m.TokensConsumed, err = meter.Int64Histogram(
		"skilllink_ai_token_usage",
		metric.WithDescription("Token usage for AI assessment calls (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token usage metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"skilllink_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordStage records the duration of one pipeline stage
func (m *Metrics) RecordStage(ctx context.Context, stage string, duration time.Duration, success bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("success", success),
	)
	if m.StageDuration != nil {
		m.StageDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if !success && m.StageFailures != nil {
		m.StageFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
	}
}

// RecordRun records the outcome of one complete pipeline run
func (m *Metrics) RecordRun(ctx context.Context, success bool) {
	if m == nil || m.PipelineRuns == nil {
		return
	}
	m.PipelineRuns.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordTokens records token usage from one assessment call
func (m *Metrics) RecordTokens(ctx context.Context, input, output, total int64) {
	if m == nil || m.TokensConsumed == nil {
		return
	}

	usage := []struct {
		tokenType string
		value     int64
	}{
		{"input", input},
		{"output", output},
		{"total", total},
	}
	for _, u := range usage {
		m.TokensConsumed.Record(ctx, u.value,
			metric.WithAttributes(attribute.String("token_type", u.tokenType)))
	}
}

// RecordRateLimitHit records one rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, key string) {
	if m == nil || m.RateLimitHits == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key", key)))
}
