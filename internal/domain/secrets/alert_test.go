package secrets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepository(t *testing.T) {
	repo, err := NewRepository("platform-a")
	require.NoError(t, err)
	assert.Equal(t, "platform-a", repo.Name)

	_, err = NewRepository("")
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestRepository_HasPrefix(t *testing.T) {
	tests := []struct {
		name   string
		repo   string
		prefix string
		want   bool
	}{
		{name: "exact prefix", repo: "platform-a", prefix: "platform", want: true},
		{name: "equal to prefix", repo: "platform", prefix: "platform", want: true},
		{name: "case sensitive", repo: "Platform-a", prefix: "platform", want: false},
		{name: "no glob semantics", repo: "platform-a", prefix: "plat*", want: false},
		{name: "no regex semantics", repo: "platform-a", prefix: "^platform", want: false},
		{name: "empty prefix matches all", repo: "other-x", prefix: "", want: true},
		{name: "substring is not prefix", repo: "my-platform", prefix: "platform", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repository{Name: tt.repo}.HasPrefix(tt.prefix))
		})
	}
}

func TestAlert_Validate(t *testing.T) {
	valid := Alert{Number: 1, SecretType: "aws_key", State: "open", CreatedAt: "2024-01-01T00:00:00Z"}
	assert.NoError(t, valid.Validate())

	missing := Alert{Number: 7, State: "resolved"}
	err := missing.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingField))
	assert.Contains(t, err.Error(), "secret_type")
	assert.Contains(t, err.Error(), "created_at")
	assert.NotContains(t, err.Error(), "state")
}

func TestRepositoryReport_TotalAlerts(t *testing.T) {
	report := RepositoryReport{
		Standard: AlertResult{Alerts: []Alert{{}, {}}},
		Generic:  AlertResult{Alerts: []Alert{{}}},
	}
	assert.Equal(t, 3, report.TotalAlerts())
}
