package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Token = "" },
			wantErr: ErrMissingCredentials,
		},
		{
			name:    "missing organization",
			mutate:  func(c *Config) { c.Organization = "" },
			wantErr: ErrMissingCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Token = "ghp_test"
			cfg.Organization = "acme"
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr))
		})
	}
}

func TestConfig_ValidateRejectsUnknownPolicy(t *testing.T) {
	cfg := Default()
	cfg.Token = "ghp_test"
	cfg.Organization = "acme"
	cfg.FailurePolicy = "retry-forever"

	err := cfg.Validate()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingCredentials))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "modernisation-platform", cfg.Prefix)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, FailurePolicyFailFast, cfg.FailurePolicy)
	assert.Equal(t, DefaultBaseURL, cfg.GitHub.BaseURL)
}

func TestSecret_NeverPrintsValue(t *testing.T) {
	s := Secret("ghp_supersecret")
	assert.Equal(t, "ghp_supersecret", s.Value())
	assert.NotContains(t, fmt.Sprintf("%v %s %#v", s, s, s), "supersecret")
	assert.Equal(t, "", Secret("").String())
}
