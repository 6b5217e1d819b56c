// Package github adapts the GitHub REST API to the secrets.PlatformClient
// port. It owns authentication, request throttling, retry of rate-limited
// calls, and the translation of API records into domain types.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	gh "github.com/google/go-github/v73/github"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/ahrav/secret-alert-audit/internal/config"
	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
	"github.com/ahrav/secret-alert-audit/pkg/common"
	"github.com/ahrav/secret-alert-audit/pkg/common/logger"
)

var _ secrets.PlatformClient = (*Client)(nil)

// Endpoint names used for logging, tracing and metrics.
const (
	endpointOrgRepos = "org_repos"
	endpointAlerts   = "secret_scanning_alerts"
)

// RequestMetrics observes every HTTP exchange made by the client.
type RequestMetrics interface {
	ObserveRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRequest(context.Context, string, int, time.Duration) {}

// Client is a wrapper around the GitHub API client with rate limiting,
// rate-limit aware retries and tracing.
type Client struct {
	gh *gh.Client

	rateLimiter *common.RateLimiter
	// adaptive re-tunes the limiter from X-RateLimit-* headers.
	adaptive bool
	retry    config.RetryConfig

	logger  *logger.Logger
	tracer  trace.Tracer
	metrics RequestMetrics
}

// NewClient creates a GitHub client authenticating with a static bearer token.
func NewClient(
	ctx context.Context,
	token config.Secret,
	cfg config.GitHubConfig,
	log *logger.Logger,
	tracer trace.Tracer,
	metrics RequestMetrics,
) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token.Value()})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = cfg.RequestTimeout

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" && cfg.BaseURL != config.DefaultBaseURL {
		baseURL, err := parseBaseURL(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		client.BaseURL = baseURL
	}

	if metrics == nil {
		metrics = noopMetrics{}
	}

	var limiter *common.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = common.NewRateLimiter(cfg.RateLimit, cfg.Burst)
	}

	return &Client{
		gh:          client,
		rateLimiter: limiter,
		adaptive:    limiter != nil,
		retry:       cfg.Retry,
		logger:      log.With("component", "github_client"),
		tracer:      tracer,
		metrics:     metrics,
	}, nil
}

// parseBaseURL validates raw and guarantees the trailing slash go-github
// requires when resolving relative endpoint paths.
func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub base URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid GitHub base URL %q: scheme and host are required", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// ListOrgRepositories retrieves one page of repositories for an organization.
func (c *Client) ListOrgRepositories(ctx context.Context, org string, q secrets.PageQuery) ([]secrets.Repository, error) {
	ctx, span := c.tracer.Start(ctx, "github_client.list_org_repositories",
		trace.WithAttributes(
			attribute.String("org", org),
			attribute.Int("page", q.Page),
			attribute.Int("per_page", q.PerPage),
		))
	defer span.End()

	opts := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{Page: q.Page, PerPage: q.PerPage},
	}

	var page []*gh.Repository
	err := c.do(ctx, endpointOrgRepos, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		page, resp, err = c.gh.Repositories.ListByOrg(ctx, org, opts)
		return resp, err
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing repositories of %s (page %d): %w", org, q.Page, err)
	}

	repos := make([]secrets.Repository, 0, len(page))
	for i, r := range page {
		repo, err := secrets.NewRepository(r.GetName())
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("decoding repository %d of page %d: %w", i, q.Page, err)
		}
		repos = append(repos, repo)
	}
	span.SetAttributes(attribute.Int("repos_count", len(repos)))

	return repos, nil
}

// ListAlerts retrieves one page of secret-scanning alerts of the given kind.
// Generic alerts are requested as open alerts restricted to the generic
// secret types.
func (c *Client) ListAlerts(
	ctx context.Context,
	org, repo string,
	kind secrets.AlertKind,
	q secrets.PageQuery,
) ([]secrets.Alert, error) {
	ctx, span := c.tracer.Start(ctx, "github_client.list_alerts",
		trace.WithAttributes(
			attribute.String("org", org),
			attribute.String("repo", repo),
			attribute.String("kind", kind.String()),
			attribute.Int("page", q.Page),
		))
	defer span.End()

	opts, err := alertListOptions(kind, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var page []*gh.SecretScanningAlert
	err = c.do(ctx, endpointAlerts, func(ctx context.Context) (*gh.Response, error) {
		var resp *gh.Response
		var err error
		page, resp, err = c.gh.SecretScanning.ListAlertsForRepo(ctx, org, repo, opts)
		return resp, err
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing %s alerts of %s/%s (page %d): %w", kind, org, repo, q.Page, err)
	}

	alerts := make([]secrets.Alert, 0, len(page))
	for _, a := range page {
		alert := toDomainAlert(a)
		if err := alert.Validate(); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("decoding alert of %s/%s: %w", org, repo, err)
		}
		alerts = append(alerts, alert)
	}
	span.SetAttributes(attribute.Int("alerts_count", len(alerts)))

	return alerts, nil
}

func alertListOptions(kind secrets.AlertKind, q secrets.PageQuery) (*gh.SecretScanningAlertListOptions, error) {
	opts := &gh.SecretScanningAlertListOptions{
		ListOptions: gh.ListOptions{Page: q.Page, PerPage: q.PerPage},
	}
	switch kind {
	case secrets.AlertKindStandard:
	case secrets.AlertKindGeneric:
		opts.State = "open"
		opts.SecretType = strings.Join(secrets.GenericSecretTypes, ",")
	default:
		return nil, fmt.Errorf("unsupported alert kind %q", kind)
	}
	return opts, nil
}

func toDomainAlert(a *gh.SecretScanningAlert) secrets.Alert {
	alert := secrets.Alert{
		Number:     a.GetNumber(),
		SecretType: a.GetSecretType(),
		State:      a.GetState(),
		HTMLURL:    a.GetHTMLURL(),
	}
	if a.CreatedAt != nil && !a.CreatedAt.IsZero() {
		alert.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	return alert
}

// do executes call under the rate limiter, retrying only rate-limited
// failures with exponential backoff. When GitHub says when the limit lifts
// (X-RateLimit-Reset or Retry-After), the next attempt waits at least that
// long, since go-github refuses to send requests before then. A 404 is mapped
// to secrets.ErrNotFound and never retried.
func (c *Client) do(ctx context.Context, endpoint string, call func(context.Context) (*gh.Response, error)) error {
	attempt := 0
	var resumeIn time.Duration
	operation := func() error {
		attempt++
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter wait failed: %w", err))
		}

		start := time.Now()
		resp, err := call(ctx)

		status := 0
		if resp != nil && resp.Response != nil {
			status = resp.StatusCode
			c.updateRateLimits(resp.Rate)
		}
		c.metrics.ObserveRequest(ctx, endpoint, status, time.Since(start))

		switch {
		case err == nil:
			return nil
		case status == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: %w", secrets.ErrNotFound, err))
		case isRateLimited(err, status):
			resumeIn = rateLimitResumeIn(err)
			if c.retry.MaxWait > 0 && resumeIn > c.retry.MaxWait {
				return backoff.Permanent(fmt.Errorf("rate limit lifts in %s, beyond the %s retry cap: %w",
					resumeIn.Round(time.Second), c.retry.MaxWait, err))
			}
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn(ctx, "rate limited by GitHub, backing off",
			"endpoint", endpoint,
			"attempt", attempt,
			"wait", wait.String(),
			"error", err,
		)
	}

	return backoff.RetryNotify(operation, c.newBackOff(ctx, &resumeIn), notify)
}

// resetBuffer pads waits derived from GitHub's second-precision reset times.
const resetBuffer = 250 * time.Millisecond

// rateLimitResumeIn returns how long GitHub asked the client to stay quiet,
// or zero when the error carries no such hint.
func rateLimitResumeIn(err error) time.Duration {
	var wait time.Duration

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr):
		if !rateErr.Rate.Reset.Time.IsZero() {
			wait = time.Until(rateErr.Rate.Reset.Time)
		}
	case errors.As(err, &abuseErr):
		wait = abuseErr.GetRetryAfter()
	}

	if wait <= 0 {
		return 0
	}
	return wait + resetBuffer
}

// resumeBackOff stretches each interval of the wrapped policy to at least the
// resume delay reported by the last failed attempt.
type resumeBackOff struct {
	backoff.BackOff
	resumeIn *time.Duration
}

func (b *resumeBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if hint := *b.resumeIn; hint > next {
		next = hint
	}
	*b.resumeIn = 0
	return next
}

func (c *Client) newBackOff(ctx context.Context, resumeIn *time.Duration) backoff.BackOff {
	if c.retry.MaxAttempts <= 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	expBackoff := backoff.NewExponentialBackOff()
	if c.retry.InitialWait > 0 {
		expBackoff.InitialInterval = c.retry.InitialWait
	}
	if c.retry.MaxWait > 0 {
		expBackoff.MaxInterval = c.retry.MaxWait
	}
	// Attempts are bounded below; elapsed time is not.
	expBackoff.MaxElapsedTime = 0

	bounded := backoff.WithMaxRetries(expBackoff, uint64(c.retry.MaxAttempts-1))
	return backoff.WithContext(&resumeBackOff{BackOff: bounded, resumeIn: resumeIn}, ctx)
}

// isRateLimited reports whether err belongs to the rate-limit class: primary
// quota exhaustion, secondary (abuse) limits, or a bare 429.
func isRateLimited(err error, status int) bool {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	return status == http.StatusTooManyRequests
}

// updateRateLimits adjusts the rate limiter based on the quota GitHub reports
// with every response.
func (c *Client) updateRateLimits(rate gh.Rate) {
	if !c.adaptive {
		return
	}
	c.rateLimiter.UpdateFromQuota(rate.Remaining, rate.Limit, rate.Reset.Time)
}
