package audit

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/secret-alert-audit/internal/domain/secrets"
)

func TestReporter_Enumerated(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Enumerated("platform", []secrets.Repository{{Name: "platform-a"}, {Name: "platform-b"}})

	assert.Equal(t, "\n🔍 Found 2 repositories starting with 'platform':\n\n", buf.String())
}

func TestReporter_RepositoryScanned(t *testing.T) {
	repo := secrets.Repository{Name: "platform-a"}
	awsKey := secrets.Alert{SecretType: "aws_key", State: "open", CreatedAt: "2024-01-01T00:00:00Z"}

	tests := []struct {
		name   string
		report secrets.RepositoryReport
		want   string
	}{
		{
			name: "standard alerts and no generic alerts",
			report: secrets.RepositoryReport{
				Repository: repo,
				Standard:   secrets.AlertResult{Alerts: []secrets.Alert{awsKey}},
			},
			want: "⚠️  1 alerts found in platform-a\n" +
				"  - Type: aws_key, State: open, Created: 2024-01-01T00:00:00Z\n" +
				"✅ No alerts found.\n\n",
		},
		{
			name: "generic alerts only",
			report: secrets.RepositoryReport{
				Repository: repo,
				Generic:    secrets.AlertResult{Alerts: []secrets.Alert{awsKey, awsKey}},
			},
			want: "✅ No alerts found.\n\n" +
				"⚠️  2 alerts found in platform-a\n" +
				"  - Type: aws_key, State: open, Created: 2024-01-01T00:00:00Z\n" +
				"  - Type: aws_key, State: open, Created: 2024-01-01T00:00:00Z\n",
		},
		{
			name: "scanning disabled for both queries prints only verdicts",
			report: secrets.RepositoryReport{
				Repository: repo,
				Standard:   secrets.AlertResult{Disabled: true},
				Generic:    secrets.AlertResult{Disabled: true},
			},
			want: "✅ No alerts found.\n\n" +
				"✅ No alerts found.\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewReporter(&buf).RepositoryScanned(tt.report)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestReporter_ScanningDisabled(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).ScanningDisabled(secrets.Repository{Name: "platform-a"})

	assert.Equal(t, "Secret scanning not enabled for platform-a\n", buf.String())
}

func TestReporter_FailureAndSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	repo := secrets.Repository{Name: "platform-b"}
	err := errors.New("500 Internal Server Error")
	r.RepositoryFailed(repo, err)
	r.Summary(Summary{Repositories: 3, Failures: []RepositoryFailure{{Repository: repo, Err: err}}})

	assert.Equal(t,
		"❌ Failed to scan platform-b: 500 Internal Server Error\n\n"+
			"❌ 1 of 3 repositories could not be scanned:\n"+
			"  - platform-b: 500 Internal Server Error\n",
		buf.String())
}
