// Package audit runs the secret-scanning audit: it enumerates the
// organization's matching repositories, fetches the standard and generic
// alerts of each one in turn, and reports what it found.
package audit

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secret-alert-audit/internal/config"
	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
	"github.com/ahrav/secret-alert-audit/pkg/common/logger"
)

// RepositoryLister produces the repositories to audit, in order.
type RepositoryLister interface {
	Enumerate(ctx context.Context) ([]secrets.Repository, error)
}

// AlertSource fetches one kind of alert for a repository.
type AlertSource interface {
	Fetch(ctx context.Context, repo secrets.Repository) (secrets.AlertResult, error)
}

var (
	_ RepositoryLister = (*RepositoryEnumerator)(nil)
	_ AlertSource      = (*AlertFetcher)(nil)
)

// RepositoryFailure records a repository whose alerts could not be fetched.
type RepositoryFailure struct {
	Repository secrets.Repository
	Err        error
}

// Summary describes a completed (or aborted) audit run.
type Summary struct {
	Repositories int
	Scanned      int
	Alerts       int
	Failures     []RepositoryFailure
}

// Auditor drives one audit run. Repositories are scanned strictly one after
// another, and for each repository the standard query runs before the
// generic one.
type Auditor struct {
	lister   RepositoryLister
	standard AlertSource
	generic  AlertSource
	reporter *Reporter

	prefix string
	policy config.FailurePolicy

	logger  *logger.Logger
	tracer  trace.Tracer
	metrics Metrics
}

// NewAuditor creates an Auditor. A nil metrics discards observations.
func NewAuditor(
	lister RepositoryLister,
	standard, generic AlertSource,
	reporter *Reporter,
	prefix string,
	policy config.FailurePolicy,
	logger *logger.Logger,
	tracer trace.Tracer,
	metrics Metrics,
) *Auditor {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Auditor{
		lister:   lister,
		standard: standard,
		generic:  generic,
		reporter: reporter,
		prefix:   prefix,
		policy:   policy,
		logger:   logger.With("component", "auditor"),
		tracer:   tracer,
		metrics:  metrics,
	}
}

// Run performs the audit. Enumeration failures always abort. Alert fetch
// failures abort under FailurePolicyFailFast, leaving later repositories
// unscanned; under FailurePolicyIsolate they are reported, scanning goes on,
// and Run returns an error joining every failure once all repositories have
// been visited.
func (a *Auditor) Run(ctx context.Context) (Summary, error) {
	ctx, span := a.tracer.Start(ctx, "audit.auditor.run",
		trace.WithAttributes(
			attribute.String("prefix", a.prefix),
			attribute.String("failure_policy", string(a.policy)),
		))
	defer span.End()

	repos, err := a.lister.Enumerate(ctx)
	if err != nil {
		span.RecordError(err)
		return Summary{}, err
	}
	a.reporter.Enumerated(a.prefix, repos)

	summary := Summary{Repositories: len(repos)}
	for _, repo := range repos {
		report, err := a.scanRepository(ctx, repo)
		if err != nil {
			a.metrics.IncRepositoryFailures(ctx)
			span.RecordError(err)

			if a.policy != config.FailurePolicyIsolate {
				a.logger.Warn(ctx, "aborting audit", "repo", repo.Name, "error", err)
				return summary, err
			}

			a.logger.Warn(ctx, "repository scan failed, continuing", "repo", repo.Name, "error", err)
			a.reporter.RepositoryFailed(repo, err)
			summary.Failures = append(summary.Failures, RepositoryFailure{Repository: repo, Err: err})
			continue
		}

		summary.Scanned++
		summary.Alerts += report.TotalAlerts()
	}

	span.SetAttributes(
		attribute.Int("repos_scanned", summary.Scanned),
		attribute.Int("alerts_found", summary.Alerts),
		attribute.Int("repos_failed", len(summary.Failures)),
	)
	a.logger.Info(ctx, "audit complete",
		"repositories", summary.Repositories,
		"scanned", summary.Scanned,
		"alerts", summary.Alerts,
		"failures", len(summary.Failures),
	)

	if len(summary.Failures) > 0 {
		a.reporter.Summary(summary)
		errs := make([]error, 0, len(summary.Failures))
		for _, f := range summary.Failures {
			errs = append(errs, f.Err)
		}
		return summary, fmt.Errorf("%d of %d repositories failed: %w",
			len(summary.Failures), summary.Repositories, errors.Join(errs...))
	}

	return summary, nil
}

func (a *Auditor) scanRepository(ctx context.Context, repo secrets.Repository) (secrets.RepositoryReport, error) {
	a.reporter.RepositoryStarted(repo)

	report := secrets.RepositoryReport{Repository: repo}

	var err error
	if report.Standard, err = a.fetch(ctx, a.standard, repo); err != nil {
		return report, err
	}
	if report.Generic, err = a.fetch(ctx, a.generic, repo); err != nil {
		return report, err
	}

	a.metrics.IncRepositoriesScanned(ctx)
	for _, res := range []secrets.AlertResult{report.Standard, report.Generic} {
		a.metrics.AddAlertsFound(ctx, res.Kind, len(res.Alerts))
	}

	a.reporter.RepositoryScanned(report)
	return report, nil
}

// fetch runs one alert query and reports a disabled result as soon as it is
// known, so the notice survives a failure of the following query.
func (a *Auditor) fetch(ctx context.Context, src AlertSource, repo secrets.Repository) (secrets.AlertResult, error) {
	res, err := src.Fetch(ctx, repo)
	if err != nil {
		return res, err
	}
	if res.Disabled {
		a.metrics.IncScanningDisabled(ctx, res.Kind)
		a.reporter.ScanningDisabled(repo)
	}
	return res, nil
}
