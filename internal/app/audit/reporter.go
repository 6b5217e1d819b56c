package audit

import (
	"fmt"
	"io"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
)

// Reporter writes the human-readable audit report.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter { return &Reporter{w: w} }

// Enumerated announces how many repositories matched the prefix.
func (r *Reporter) Enumerated(prefix string, repos []secrets.Repository) {
	fmt.Fprintf(r.w, "\n🔍 Found %d repositories starting with '%s':\n\n", len(repos), prefix)
}

// RepositoryStarted prints the banner that precedes a repository's results.
func (r *Reporter) RepositoryStarted(repo secrets.Repository) {
	fmt.Fprintf(r.w, "📘 Checking repo: %s\n", repo.Name)
}

// ScanningDisabled prints the notice for an alert query answered with 404.
func (r *Reporter) ScanningDisabled(repo secrets.Repository) {
	fmt.Fprintf(r.w, "Secret scanning not enabled for %s\n", repo.Name)
}

// RepositoryScanned prints both alert verdicts of a repository, standard
// first.
func (r *Reporter) RepositoryScanned(report secrets.RepositoryReport) {
	r.alerts(report.Repository, report.Standard.Alerts)
	r.alerts(report.Repository, report.Generic.Alerts)
}

func (r *Reporter) alerts(repo secrets.Repository, alerts []secrets.Alert) {
	if len(alerts) == 0 {
		fmt.Fprint(r.w, "✅ No alerts found.\n\n")
		return
	}

	fmt.Fprintf(r.w, "⚠️  %d alerts found in %s\n", len(alerts), repo.Name)
	for _, a := range alerts {
		fmt.Fprintf(r.w, "  - Type: %s, State: %s, Created: %s\n", a.SecretType, a.State, a.CreatedAt)
	}
}

// RepositoryFailed reports a repository whose scan failed under the isolate
// policy.
func (r *Reporter) RepositoryFailed(repo secrets.Repository, err error) {
	fmt.Fprintf(r.w, "❌ Failed to scan %s: %v\n\n", repo.Name, err)
}

// Summary prints the closing line of an isolate-policy run that had failures.
func (r *Reporter) Summary(s Summary) {
	fmt.Fprintf(r.w, "❌ %d of %d repositories could not be scanned:\n", len(s.Failures), s.Repositories)
	for _, f := range s.Failures {
		fmt.Fprintf(r.w, "  - %s: %v\n", f.Repository.Name, f.Err)
	}
}
