package config

import (
	"errors"
	"fmt"
	"time"
)

// DefaultPrefix is the repository-name prefix selected for an audit. It is a
// build-time setting: override it with
// -ldflags "-X github.com/ahrav/secret-alert-audit/internal/config.DefaultPrefix=...".
var DefaultPrefix = "modernisation-platform"

// PageSize is the per_page value sent with every paginated request.
const PageSize = 100

// DefaultBaseURL is the public GitHub REST API root.
const DefaultBaseURL = "https://api.github.com/"

// ErrMissingCredentials is returned by Validate when the token or the
// organization is absent.
var ErrMissingCredentials = errors.New("missing GitHub credentials")

// FailurePolicy selects how the audit reacts to a failed alert fetch.
type FailurePolicy string

const (
	// FailurePolicyFailFast aborts the whole run on the first fetch error.
	FailurePolicyFailFast FailurePolicy = "fail-fast"
	// FailurePolicyIsolate records the failure, keeps scanning the remaining
	// repositories, and reports every failure at the end.
	FailurePolicyIsolate FailurePolicy = "isolate"
)

// Secret is a string that never prints its value.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

// GoString keeps %#v from leaking the value.
func (s Secret) GoString() string { return s.String() }

// Value returns the raw secret for use on the wire.
func (s Secret) Value() string { return string(s) }

// Config represents the complete configuration of an audit run.
type Config struct {
	Token        Secret `yaml:"-"`
	Organization string `yaml:"-"`
	Prefix       string `yaml:"prefix,omitempty"`
	PageSize     int    `yaml:"-"`

	GitHub        GitHubConfig  `yaml:"github"`
	FailurePolicy FailurePolicy `yaml:"failure_policy,omitempty"`
	Telemetry     Telemetry     `yaml:"telemetry"`
	LogLevel      string        `yaml:"log_level,omitempty"`
}

// GitHubConfig tunes the REST client.
type GitHubConfig struct {
	// BaseURL points at the REST API root, for GitHub Enterprise or tests.
	BaseURL string `yaml:"base_url,omitempty"`

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`

	// RateLimit is the maximum number of requests per second. The limit is
	// re-tuned from the quota headers GitHub returns. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit,omitempty"`
	Burst     int     `yaml:"burst,omitempty"`

	// Retry governs retries of rate-limited requests only.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig defines basic retry behavior for rate-limited requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts per request. One disables
	// retrying.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// InitialWait is the initial backoff duration (e.g., 1s).
	InitialWait time.Duration `yaml:"initial_wait,omitempty"`

	// MaxWait is the upper bound for a single backoff interval (e.g., 30s).
	MaxWait time.Duration `yaml:"max_wait,omitempty"`
}

// Telemetry configures tracing and metrics export.
type Telemetry struct {
	Endpoint    string  `yaml:"endpoint,omitempty"`
	ServiceName string  `yaml:"service_name,omitempty"`
	Probability float64 `yaml:"probability,omitempty"`
	Insecure    bool    `yaml:"insecure,omitempty"`
}

// Default returns the configuration used when no source overrides a value.
func Default() *Config {
	return &Config{
		Prefix:   DefaultPrefix,
		PageSize: PageSize,
		GitHub: GitHubConfig{
			BaseURL:        DefaultBaseURL,
			RequestTimeout: 30 * time.Second,
			RateLimit:      1.25, // 4500 requests/hour, below the 5000/hour default quota.
			Burst:          5,
			Retry: RetryConfig{
				MaxAttempts: 3,
				InitialWait: time.Second,
				MaxWait:     30 * time.Second,
			},
		},
		FailurePolicy: FailurePolicyFailFast,
		Telemetry: Telemetry{
			ServiceName: "secret-alert-audit",
			Probability: 1,
			Insecure:    true,
		},
		LogLevel: "info",
	}
}

// Validate checks the values an audit cannot run without. Only presence is
// checked; the token format and organization name are passed through as-is.
func (c *Config) Validate() error {
	if c.Token == "" || c.Organization == "" {
		return ErrMissingCredentials
	}

	switch c.FailurePolicy {
	case FailurePolicyFailFast, FailurePolicyIsolate:
	default:
		return fmt.Errorf("unknown failure policy %q", c.FailurePolicy)
	}

	if c.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	return nil
}
