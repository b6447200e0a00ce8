package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
monitor:
  host: 10.0.0.5
  port: 443
ports:
  - port: 7129
    label: CLS
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Monitor.Host)
	assert.Equal(t, 443, cfg.Monitor.Port)
	assert.Equal(t, 5, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 500, cfg.Monitor.TimeoutMs)
	assert.Equal(t, 3, cfg.Monitor.FailureThreshold)
	assert.Equal(t, 2000, cfg.TestTimeoutMs)
	require.Len(t, cfg.Ports, 1)
	assert.Equal(t, "CLS", cfg.Ports[0].Label)
}

func TestLoadRejectsUnlabelledPort(t *testing.T) {
	path := writeConfig(t, `
ports:
  - port: 7129
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	path := writeConfig(t, `
ports:
  - port: 99999
    label: BAD
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsIncompleteWatcher(t *testing.T) {
	path := writeConfig(t, `
watcher:
  enabled: true
  directory: /tmp/in
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnabledPortsSkipsDisabledSentinel(t *testing.T) {
	path := writeConfig(t, `
ports:
  - port: 7129
    label: CLS
  - port: 0
    label: SPARE
  - port: 7130
    label: OCR
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	enabled := cfg.EnabledPorts()
	require.Len(t, enabled, 2)
	assert.Equal(t, 7129, enabled[0].Port)
	assert.Equal(t, 7130, enabled[1].Port)

	// The disabled entry stays listed in the full configuration.
	assert.Len(t, cfg.Ports, 3)
}

func TestRetentionKeepClampedToMax(t *testing.T) {
	path := writeConfig(t, `
retention:
  max_files: 10
  keep_files: 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Retention.KeepFiles)
}
