package envloader

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/secret-alert-audit/internal/config"
)

type stubLoader struct {
	cfg *config.Config
	err error
}

func (s stubLoader) Load(context.Context) (*config.Config, error) { return s.cfg, s.err }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		EnvToken, EnvOwner, EnvOrganisation, EnvBaseURL, EnvFailurePolicy,
		EnvLogLevel, EnvRetryAttempts, EnvRequestTimeout, EnvRateLimit, EnvOTLPEndpoint,
	} {
		t.Setenv(name, "")
	}
}

func TestEnvLoader_ReadsCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvToken, "ghp_abc")
	t.Setenv(EnvOwner, "acme")

	cfg, err := New(nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ghp_abc", cfg.Token.Value())
	assert.Equal(t, "acme", cfg.Organization)
	assert.Equal(t, config.DefaultPrefix, cfg.Prefix)
	assert.NoError(t, cfg.Validate())
}

func TestEnvLoader_OrganisationAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvToken, "ghp_abc")
	t.Setenv(EnvOrganisation, "acme-alias")

	cfg, err := New(nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme-alias", cfg.Organization)
}

func TestEnvLoader_EmptyValuesAreMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOwner, "acme")

	cfg, err := New(nil).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, errors.Is(cfg.Validate(), config.ErrMissingCredentials))
}

func TestEnvLoader_OverridesBase(t *testing.T) {
	clearEnv(t)
	base := config.Default()
	base.GitHub.BaseURL = "https://ghe.example.com/api/v3/"
	base.LogLevel = "debug"

	t.Setenv(EnvBaseURL, "http://127.0.0.1:9999/")
	t.Setenv(EnvFailurePolicy, "isolate")
	t.Setenv(EnvRetryAttempts, "1")
	t.Setenv(EnvRequestTimeout, "5s")

	cfg, err := New(stubLoader{cfg: base}).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9999/", cfg.GitHub.BaseURL)
	assert.Equal(t, config.FailurePolicyIsolate, cfg.FailurePolicy)
	assert.Equal(t, 1, cfg.GitHub.Retry.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.GitHub.RequestTimeout)
	assert.Equal(t, "debug", cfg.LogLevel, "unset variables keep the base value")
}

func TestEnvLoader_BaseError(t *testing.T) {
	clearEnv(t)
	boom := errors.New("boom")

	_, err := New(stubLoader{err: boom}).Load(context.Background())
	assert.ErrorIs(t, err, boom)
}
