// Package envloader overlays process environment values on top of another
// configuration source.
package envloader

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/ahrav/secret-alert-audit/internal/config"
)

// Environment variable names understood by the loader.
const (
	EnvToken          = "GITHUB_TOKEN"
	EnvOwner          = "GITHUB_OWNER"
	EnvOrganisation   = "GITHUB_ORGANISATION"
	EnvConfigFile     = "AUDIT_CONFIG_FILE"
	EnvBaseURL        = "AUDIT_BASE_URL"
	EnvFailurePolicy  = "AUDIT_FAILURE_POLICY"
	EnvLogLevel       = "AUDIT_LOG_LEVEL"
	EnvRetryAttempts  = "AUDIT_RETRY_MAX_ATTEMPTS"
	EnvRequestTimeout = "AUDIT_REQUEST_TIMEOUT"
	EnvRateLimit      = "AUDIT_RATE_LIMIT"
	EnvOTLPEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

const (
	keyToken          = "token"
	keyOrganization   = "organization"
	keyBaseURL        = "github.base_url"
	keyFailurePolicy  = "failure_policy"
	keyLogLevel       = "log_level"
	keyRetryAttempts  = "github.retry.max_attempts"
	keyRequestTimeout = "github.request_timeout"
	keyRateLimit      = "github.rate_limit"
	keyOTLPEndpoint   = "telemetry.endpoint"
)

// EnvLoader reads the process environment and applies every set value on top
// of the configuration returned by base. Environment values always win.
type EnvLoader struct {
	base  config.Loader
	viper *viper.Viper
}

// New creates an EnvLoader layered over base. A nil base starts from
// config.Default().
func New(base config.Loader) *EnvLoader {
	if base == nil {
		base = config.DefaultLoader{}
	}

	v := viper.New()
	// The first name is the viper key; the rest are environment variables
	// tried in order.
	bindings := [][]string{
		{keyToken, EnvToken},
		{keyOrganization, EnvOwner, EnvOrganisation},
		{keyBaseURL, EnvBaseURL},
		{keyFailurePolicy, EnvFailurePolicy},
		{keyLogLevel, EnvLogLevel},
		{keyRetryAttempts, EnvRetryAttempts},
		{keyRequestTimeout, EnvRequestTimeout},
		{keyRateLimit, EnvRateLimit},
		{keyOTLPEndpoint, EnvOTLPEndpoint},
	}
	for _, b := range bindings {
		// BindEnv only fails when called without arguments.
		_ = v.BindEnv(b...)
	}

	return &EnvLoader{base: base, viper: v}
}

// Load returns the base configuration with environment overrides applied.
func (l *EnvLoader) Load(ctx context.Context) (*config.Config, error) {
	cfg, err := l.base.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading base configuration: %w", err)
	}

	v := l.viper
	if v.IsSet(keyToken) {
		cfg.Token = config.Secret(v.GetString(keyToken))
	}
	if v.IsSet(keyOrganization) {
		cfg.Organization = v.GetString(keyOrganization)
	}
	if v.IsSet(keyBaseURL) {
		cfg.GitHub.BaseURL = v.GetString(keyBaseURL)
	}
	if v.IsSet(keyFailurePolicy) {
		cfg.FailurePolicy = config.FailurePolicy(v.GetString(keyFailurePolicy))
	}
	if v.IsSet(keyLogLevel) {
		cfg.LogLevel = v.GetString(keyLogLevel)
	}
	if v.IsSet(keyRetryAttempts) {
		cfg.GitHub.Retry.MaxAttempts = v.GetInt(keyRetryAttempts)
	}
	if v.IsSet(keyRequestTimeout) {
		cfg.GitHub.RequestTimeout = v.GetDuration(keyRequestTimeout)
	}
	if v.IsSet(keyRateLimit) {
		cfg.GitHub.RateLimit = v.GetFloat64(keyRateLimit)
	}
	if v.IsSet(keyOTLPEndpoint) {
		cfg.Telemetry.Endpoint = v.GetString(keyOTLPEndpoint)
	}

	return cfg, nil
}

// ConfigFile returns the path named by AUDIT_CONFIG_FILE, if any.
func ConfigFile() string {
	v := viper.New()
	_ = v.BindEnv("config_file", EnvConfigFile)
	return v.GetString("config_file")
}
