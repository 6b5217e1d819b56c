// Package secrets holds the domain model for secret-scanning audits: the
// repositories selected for an audit and the alerts reported against them.
package secrets

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by the platform adapter when an endpoint answers
	// 404. For alert endpoints this means secret scanning is not enabled.
	ErrNotFound = errors.New("resource not found")

	// ErrMissingField marks a response record that lacks a required field.
	ErrMissingField = errors.New("required field missing")
)

// Repository identifies a repository within the audited organization.
type Repository struct {
	Name string
}

// NewRepository validates name and returns a Repository.
func NewRepository(name string) (Repository, error) {
	if name == "" {
		return Repository{}, fmt.Errorf("repository: %w: name", ErrMissingField)
	}
	return Repository{Name: name}, nil
}

// HasPrefix reports whether the repository name starts with prefix. The test
// is case-sensitive and treats prefix literally.
func (r Repository) HasPrefix(prefix string) bool { return strings.HasPrefix(r.Name, prefix) }

// Alert is a single secret-scanning finding. State is carried as returned by
// the platform and is not validated.
type Alert struct {
	Number     int
	SecretType string
	State      string
	CreatedAt  string
	HTMLURL    string
}

// Validate checks that the fields every report line needs are present.
func (a Alert) Validate() error {
	var missing []string
	if a.SecretType == "" {
		missing = append(missing, "secret_type")
	}
	if a.State == "" {
		missing = append(missing, "state")
	}
	if a.CreatedAt == "" {
		missing = append(missing, "created_at")
	}
	if len(missing) > 0 {
		return fmt.Errorf("alert #%d: %w: %s", a.Number, ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// AlertKind distinguishes the two alert queries run against every repository.
type AlertKind string

const (
	// AlertKindStandard covers provider-specific detectors.
	AlertKindStandard AlertKind = "standard"
	// AlertKindGeneric covers open alerts raised by pattern-based detectors.
	AlertKindGeneric AlertKind = "generic"
)

func (k AlertKind) String() string { return string(k) }

// GenericSecretTypes lists the secret_type tokens GitHub uses for its generic
// (non-provider) patterns. Requesting them explicitly is the only way the
// REST API returns generic alerts.
var GenericSecretTypes = []string{
	"password",
	"http_basic_authentication_header",
	"http_bearer_authentication_header",
	"mongodb_connection_string",
	"mysql_connection_string",
	"openssh_private_key",
	"pgp_private_key",
	"postgres_connection_string",
	"rsa_private_key",
}

// AlertResult is the outcome of one alert query for one repository.
type AlertResult struct {
	Repository Repository
	Kind       AlertKind
	Alerts     []Alert
	// Disabled is set when the platform reported the feature as unavailable
	// for the repository. Alerts is empty in that case.
	Disabled bool
}

// RepositoryReport pairs both alert queries for a repository.
type RepositoryReport struct {
	Repository Repository
	Standard   AlertResult
	Generic    AlertResult
}

// TotalAlerts returns the number of alerts across both queries.
func (r RepositoryReport) TotalAlerts() int { return len(r.Standard.Alerts) + len(r.Generic.Alerts) }
