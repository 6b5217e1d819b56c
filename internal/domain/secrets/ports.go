package secrets

import "context"

// PageQuery addresses one page of a paginated listing. Pages start at 1.
type PageQuery struct {
	Page    int
	PerPage int
}

// PlatformClient is the source-control platform surface the audit needs.
// Implementations return ErrNotFound (possibly wrapped) for 404 responses and
// an empty slice once a page lies past the end of the listing.
type PlatformClient interface {
	// ListOrgRepositories returns one page of the organization's repositories.
	ListOrgRepositories(ctx context.Context, org string, q PageQuery) ([]Repository, error)

	// ListAlerts returns one page of the repository's alerts of the given kind.
	ListAlerts(ctx context.Context, org, repo string, kind AlertKind, q PageQuery) ([]Alert, error)
}
