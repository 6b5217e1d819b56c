package audit

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
	"github.com/ahrav/secret-alert-audit/pkg/common/logger"
)

// AlertFetcher collects every alert of one kind for a repository.
type AlertFetcher struct {
	client  secrets.PlatformClient
	org     string
	kind    secrets.AlertKind
	perPage int

	logger *logger.Logger
	tracer trace.Tracer
}

// NewAlertFetcher creates an AlertFetcher for the given alert kind.
func NewAlertFetcher(
	client secrets.PlatformClient,
	org string,
	kind secrets.AlertKind,
	perPage int,
	logger *logger.Logger,
	tracer trace.Tracer,
) *AlertFetcher {
	return &AlertFetcher{
		client:  client,
		org:     org,
		kind:    kind,
		perPage: perPage,
		logger:  logger.With("component", "alert_fetcher", "kind", kind.String()),
		tracer:  tracer,
	}
}

// Kind reports which alert query the fetcher runs.
func (f *AlertFetcher) Kind() secrets.AlertKind { return f.kind }

// Fetch pages through the repository's alerts until an empty page. A 404 on
// any page means secret scanning is not enabled: the walk stops and the
// result is marked Disabled with no alerts and no error. Every other failure
// is returned.
func (f *AlertFetcher) Fetch(ctx context.Context, repo secrets.Repository) (secrets.AlertResult, error) {
	ctx, span := f.tracer.Start(ctx, "audit.alert_fetcher.fetch",
		trace.WithAttributes(
			attribute.String("repo", repo.Name),
			attribute.String("kind", f.kind.String()),
		))
	defer span.End()

	result := secrets.AlertResult{Repository: repo, Kind: f.kind}

	alerts, err := collectPages(ctx, f.perPage, func(ctx context.Context, q secrets.PageQuery) ([]secrets.Alert, error) {
		return f.client.ListAlerts(ctx, f.org, repo.Name, f.kind, q)
	})
	switch {
	case errors.Is(err, secrets.ErrNotFound):
		f.logger.Info(ctx, "secret scanning not enabled", "repo", repo.Name)
		span.SetAttributes(attribute.Bool("disabled", true))
		result.Disabled = true
		return result, nil
	case err != nil:
		span.RecordError(err)
		return result, fmt.Errorf("fetching %s alerts for %s: %w", f.kind, repo.Name, err)
	}

	result.Alerts = alerts
	span.SetAttributes(attribute.Int("alerts_count", len(alerts)))
	f.logger.Debug(ctx, "alerts fetched", "repo", repo.Name, "count", len(alerts))

	return result, nil
}
