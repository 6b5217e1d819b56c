package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
)

// Metrics records what an audit run observed.
type Metrics interface {
	IncRepositoriesScanned(ctx context.Context)
	AddAlertsFound(ctx context.Context, kind secrets.AlertKind, n int)
	IncScanningDisabled(ctx context.Context, kind secrets.AlertKind)
	IncRepositoryFailures(ctx context.Context)
	ObserveRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) IncRepositoriesScanned(context.Context) {}
func (NoopMetrics) AddAlertsFound(context.Context, secrets.AlertKind, int) {}
func (NoopMetrics) IncScanningDisabled(context.Context, secrets.AlertKind) {}
func (NoopMetrics) IncRepositoryFailures(context.Context) {}
func (NoopMetrics) ObserveRequest(context.Context, string, int, time.Duration) {}

type otelMetrics struct {
	reposScanned     metric.Int64Counter
	alertsFound      metric.Int64Counter
	scanningDisabled metric.Int64Counter
	repoFailures     metric.Int64Counter
	apiRequests      metric.Int64Counter
	apiLatency       metric.Float64Histogram
}

// NewMetrics creates Metrics backed by an OpenTelemetry meter.
func NewMetrics(mp metric.MeterProvider) (Metrics, error) {
	meter := mp.Meter("secret-alert-audit")

	m := new(otelMetrics)
	var err error

	if m.reposScanned, err = meter.Int64Counter("audit_repositories_scanned_total",
		metric.WithDescription("Repositories whose alerts were fetched")); err != nil {
		return nil, fmt.Errorf("failed to create repositories scanned counter: %w", err)
	}
	if m.alertsFound, err = meter.Int64Counter("audit_alerts_found_total",
		metric.WithDescription("Secret-scanning alerts reported, by kind")); err != nil {
		return nil, fmt.Errorf("failed to create alerts found counter: %w", err)
	}
	if m.scanningDisabled, err = meter.Int64Counter("audit_scanning_disabled_total",
		metric.WithDescription("Alert queries answered with not-found, by kind")); err != nil {
		return nil, fmt.Errorf("failed to create scanning disabled counter: %w", err)
	}
	if m.repoFailures, err = meter.Int64Counter("audit_repository_failures_total",
		metric.WithDescription("Repositories whose alert fetch failed")); err != nil {
		return nil, fmt.Errorf("failed to create repository failures counter: %w", err)
	}
	if m.apiRequests, err = meter.Int64Counter("audit_api_requests_total",
		metric.WithDescription("GitHub API requests, by endpoint and status")); err != nil {
		return nil, fmt.Errorf("failed to create api requests counter: %w", err)
	}
	if m.apiLatency, err = meter.Float64Histogram("audit_api_request_duration_seconds",
		metric.WithDescription("GitHub API request latency"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create api latency histogram: %w", err)
	}

	return m, nil
}

func (m *otelMetrics) IncRepositoriesScanned(ctx context.Context) {
	m.reposScanned.Add(ctx, 1)
}

func (m *otelMetrics) AddAlertsFound(ctx context.Context, kind secrets.AlertKind, n int) {
	m.alertsFound.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (m *otelMetrics) IncScanningDisabled(ctx context.Context, kind secrets.AlertKind) {
	m.scanningDisabled.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind.String())))
}

func (m *otelMetrics) IncRepositoryFailures(ctx context.Context) {
	m.repoFailures.Add(ctx, 1)
}

func (m *otelMetrics) ObserveRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", strconv.Itoa(statusCode)),
	)
	m.apiRequests.Add(ctx, 1, attrs)
	m.apiLatency.Record(ctx, duration.Seconds(), attrs)
}
