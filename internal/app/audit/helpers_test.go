package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
)

// mockPlatformClient is a testify mock of secrets.PlatformClient for tests that
// pin the exact request sequence.
type mockPlatformClient struct{ mock.Mock }

func (m *mockPlatformClient) ListOrgRepositories(ctx context.Context, org string, q secrets.PageQuery) ([]secrets.Repository, error) {
	args := m.Called(ctx, org, q)
	if repos := args.Get(0); repos != nil {
		return repos.([]secrets.Repository), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlatformClient) ListAlerts(
	ctx context.Context,
	org, repo string,
	kind secrets.AlertKind,
	q secrets.PageQuery,
) ([]secrets.Alert, error) {
	args := m.Called(ctx, org, repo, kind, q)
	if alerts := args.Get(0); alerts != nil {
		return alerts.([]secrets.Alert), args.Error(1)
	}
	return nil, args.Error(1)
}

func page(n, perPage int) secrets.PageQuery { return secrets.PageQuery{Page: n, PerPage: perPage} }

// fakePlatform serves fixed data with real page slicing, so tests can vary
// the page size freely.
type fakePlatform struct {
	repos  []string
	alerts map[string]map[secrets.AlertKind][]secrets.Alert
	// notFoundAt makes an alert query answer 404 from the given page on.
	notFoundAt map[string]map[secrets.AlertKind]int
	// failRepos makes every alert query of the repository fail.
	failRepos map[string]error
	// failKinds makes one kind of alert query of the repository fail.
	failKinds map[string]map[secrets.AlertKind]error

	repoCalls  []secrets.PageQuery
	alertCalls []alertCall
}

type alertCall struct {
	repo string
	kind secrets.AlertKind
	page int
}

var errServer = errors.New("500 Internal Server Error")

func (f *fakePlatform) ListOrgRepositories(_ context.Context, _ string, q secrets.PageQuery) ([]secrets.Repository, error) {
	f.repoCalls = append(f.repoCalls, q)
	names := pageSlice(f.repos, q)
	repos := make([]secrets.Repository, 0, len(names))
	for _, n := range names {
		repos = append(repos, secrets.Repository{Name: n})
	}
	return repos, nil
}

func (f *fakePlatform) ListAlerts(_ context.Context, _, repo string, kind secrets.AlertKind, q secrets.PageQuery) ([]secrets.Alert, error) {
	f.alertCalls = append(f.alertCalls, alertCall{repo: repo, kind: kind, page: q.Page})

	if err, ok := f.failRepos[repo]; ok {
		return nil, err
	}
	if err, ok := f.failKinds[repo][kind]; ok {
		return nil, err
	}
	if at, ok := f.notFoundAt[repo][kind]; ok && q.Page >= at {
		return nil, fmt.Errorf("GET %s: 404 Not Found: %w", repo, secrets.ErrNotFound)
	}
	return pageSlice(f.alerts[repo][kind], q), nil
}

func (f *fakePlatform) alertCallsFor(repo string) int {
	n := 0
	for _, c := range f.alertCalls {
		if c.repo == repo {
			n++
		}
	}
	return n
}

func pageSlice[T any](items []T, q secrets.PageQuery) []T {
	start := (q.Page - 1) * q.PerPage
	if start >= len(items) {
		return nil
	}
	end := start + q.PerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
