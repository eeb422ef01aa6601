package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulucloud/kulu/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kulu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
version: "1"
accounts:
  - provider: aws
    account_id: "123456789012"
    credential_ref: prod
    regions: [us-east-1, eu-west-1]
  - provider: gcp
    account_id: my-project
window_days: 30
metrics_concurrency: 10
stage_timeout: 2m
storage_dir: /var/lib/kulu
daemon:
  scan_interval: 30m
  metrics_addr: ":9090"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, types.ProviderAWS, cfg.Accounts[0].Provider)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, cfg.Accounts[0].Regions)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, 10, cfg.MetricsConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.StageTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Daemon.ScanInterval)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
version: "1"
accounts:
  - provider: azure
    account_id: 00000000-0000-0000-0000-000000000000
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, cfg.WindowDays)
	assert.Equal(t, DefaultMetricsConcurrency, cfg.MetricsConcurrency)
	assert.Equal(t, DefaultStageTimeout, cfg.StageTimeout)
	assert.Equal(t, DefaultScanInterval, cfg.Daemon.ScanInterval)
	assert.Equal(t, DefaultKeepReports, cfg.KeepReports)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing version", "accounts:\n  - provider: aws\n    account_id: x\n"},
		{"no accounts", "version: \"1\"\n"},
		{"bad provider", "version: \"1\"\naccounts:\n  - provider: ibm\n    account_id: x\n"},
		{"missing account id", "version: \"1\"\naccounts:\n  - provider: aws\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestScanRequest(t *testing.T) {
	cfg := &Config{
		Version:  "1",
		Accounts: []types.CloudAccount{{Provider: types.ProviderAWS, AccountID: "1"}},
	}
	require.NoError(t, cfg.Validate())

	req := cfg.ScanRequest()
	assert.Len(t, req.Accounts, 1)
	assert.Equal(t, DefaultMetricsConcurrency, req.Options.MetricsConcurrency)
	assert.InDelta(t, float64(14*24*time.Hour), float64(req.Window.Duration()), float64(time.Minute))
}
