package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", config.Target.BaseURL)
	assert.Equal(t, "fixed", config.Settle.Strategy)
	assert.Equal(t, "test{ordinal}_{name}.png", config.Artifacts.Template)
	assert.Equal(t, 5, config.Report.ConsoleErrorLimit)
	assert.True(t, config.Browser.Headless)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, "base.toml", `
[target]
base_url = "http://base:5000"

[settle]
chat = "10s"
`)
	override := writeConfig(t, dir, "override.toml", `
[target]
base_url = "http://override:5000"
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "http://override:5000", config.Target.BaseURL)
	assert.Equal(t, "10s", config.Settle.Chat, "keys absent from later files keep earlier values")
	assert.Equal(t, "12s", config.Settle.Aggregation, "keys absent from every file keep defaults")
}

func TestLoadFromFiles_EnvOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "chatprobe.toml", `
[target]
base_url = "http://file:5000"

[browser]
headless = true
`)
	t.Setenv("CHATPROBE_BASE_URL", "http://env:5000")
	t.Setenv("CHATPROBE_HEADLESS", "false")
	t.Setenv("CHATPROBE_LOG_OUTPUT", "stdout, file")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env:5000", config.Target.BaseURL)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestLoadFromFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeConfig(t, dir, "bad.toml", "[target\nbase_url = ")

	_, err := LoadFromFiles(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFromFiles(bad)
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, "http://flag:5000/", true)

	assert.Equal(t, "http://flag:5000", config.Target.BaseURL)
	assert.False(t, config.Browser.Headless)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback time.Duration
		want     time.Duration
	}{
		{"empty uses fallback", "", time.Second, time.Second},
		{"valid", "250ms", time.Second, 250 * time.Millisecond},
		{"invalid uses fallback", "soon", 2 * time.Second, 2 * time.Second},
		{"negative uses fallback", "-1s", 3 * time.Second, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.value, tt.fallback))
		})
	}
}

func TestLoadFromFiles_SampleDeploymentConfig(t *testing.T) {
	config, err := LoadFromFiles(filepath.Join("..", "..", "deployments", "local", "chatprobe.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001", config.Target.BackendURL)
	assert.Equal(t, []string{"thinking...", "loading..."}, config.Settle.BusyText)
	assert.Equal(t, "./data/chatprobe", config.Storage.Badger.Path)
	assert.Equal(t, "*/30 * * * *", config.Watch.Schedule)
}
