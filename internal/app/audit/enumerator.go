package audit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
	"github.com/ahrav/secret-alert-audit/pkg/common/logger"
)

// RepositoryEnumerator lists the organization's repositories whose names
// start with a prefix.
type RepositoryEnumerator struct {
	client  secrets.PlatformClient
	org     string
	prefix  string
	perPage int

	logger *logger.Logger
	tracer trace.Tracer
}

// NewRepositoryEnumerator creates a RepositoryEnumerator for org.
func NewRepositoryEnumerator(
	client secrets.PlatformClient,
	org, prefix string,
	perPage int,
	logger *logger.Logger,
	tracer trace.Tracer,
) *RepositoryEnumerator {
	return &RepositoryEnumerator{
		client:  client,
		org:     org,
		prefix:  prefix,
		perPage: perPage,
		logger:  logger.With("component", "repository_enumerator", "org", org),
		tracer:  tracer,
	}
}

// Enumerate walks every page of the organization's repository listing and
// returns the matching repositories in listing order. Any failure aborts the
// walk; no partial result is returned.
func (e *RepositoryEnumerator) Enumerate(ctx context.Context) ([]secrets.Repository, error) {
	ctx, span := e.tracer.Start(ctx, "audit.repository_enumerator.enumerate",
		trace.WithAttributes(
			attribute.String("org", e.org),
			attribute.String("prefix", e.prefix),
		))
	defer span.End()

	logr := logger.NewLoggerContext(e.logger.With("prefix", e.prefix))

	all, err := collectPages(ctx, e.perPage, func(ctx context.Context, q secrets.PageQuery) ([]secrets.Repository, error) {
		page, err := e.client.ListOrgRepositories(ctx, e.org, q)
		if err != nil {
			return nil, err
		}
		logr.Debug(ctx, "listed repository page", "page", q.Page, "count", len(page))

		// An all-filtered page is still a non-empty page, so the walk must
		// continue; return the raw page and filter after collection.
		return page, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("enumerating repositories of %s: %w", e.org, err)
	}

	repos := make([]secrets.Repository, 0, len(all))
	for _, repo := range all {
		if repo.HasPrefix(e.prefix) {
			repos = append(repos, repo)
		}
	}

	logr.Add("listed", len(all))
	logr.Info(ctx, "repository enumeration complete", "matched", len(repos))
	span.SetAttributes(
		attribute.Int("repos_listed", len(all)),
		attribute.Int("repos_matched", len(repos)),
	)

	return repos, nil
}
