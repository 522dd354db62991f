// Package common provides configuration, logging and process utilities
// shared by the harness.
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the harness configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "ci"
	Target      TargetConfig    `toml:"target"`
	Browser     BrowserConfig   `toml:"browser"`
	Driver      DriverConfig    `toml:"driver"`
	Settle      SettleConfig    `toml:"settle"`
	Artifacts   ArtifactsConfig `toml:"artifacts"`
	Scenarios   ScenariosConfig `toml:"scenarios"`
	Report      ReportConfig    `toml:"report"`
	Preflight   PreflightConfig `toml:"preflight"`
	Storage     StorageConfig   `toml:"storage"`
	Watch       WatchConfig     `toml:"watch"`
	Logging     LoggingConfig   `toml:"logging"`
}

// TargetConfig locates the application under test
type TargetConfig struct {
	BaseURL    string `toml:"base_url"`    // Frontend serving the chat page and dashboard routes
	BackendURL string `toml:"backend_url"` // API/socket server, used by preflight only
}

type BrowserConfig struct {
	Headless          bool   `toml:"headless"`
	WindowWidth       int    `toml:"window_width"`
	WindowHeight      int    `toml:"window_height"`
	ExecPath          string `toml:"exec_path"`          // Empty = let chromedp find Chrome
	NavigationTimeout string `toml:"navigation_timeout"` // e.g., "30s" - load + network idle upper bound
	IdleEvent         string `toml:"idle_event"`         // Lifecycle event treated as "network idle"
}

type DriverConfig struct {
	LocateTimeout  string   `toml:"locate_timeout"` // How long to poll for chat controls
	PollInterval   string   `toml:"poll_interval"`
	InputSelectors []string `toml:"input_selectors"` // Overrides the built-in priority list when set
	SendSelectors  []string `toml:"send_selectors"`
}

// SettleConfig selects the settle strategy and its per-kind waits
type SettleConfig struct {
	Strategy     string   `toml:"strategy"` // "fixed" or "poll"
	Navigation   string   `toml:"navigation"`
	Chat         string   `toml:"chat"`
	Aggregation  string   `toml:"aggregation"`
	PollInterval string   `toml:"poll_interval"`
	StableRounds int      `toml:"stable_rounds"`
	ReadyText    []string `toml:"ready_text"` // Poll: at least one must be present
	BusyText     []string `toml:"busy_text"`  // Poll: none may be present
}

type ArtifactsConfig struct {
	Dir           string `toml:"dir"`
	Template      string `toml:"template"` // {ordinal} and {name} placeholders
	SnapshotDumps bool   `toml:"snapshot_dumps"`
}

type ScenariosConfig struct {
	Files []string `toml:"files"` // Empty = built-in multi-platform catalog
}

type ReportConfig struct {
	Title             string `toml:"title"`
	ConsoleErrorLimit int    `toml:"console_error_limit"`
	ExcerptLength     int    `toml:"excerpt_length"`
	JSONPath          string `toml:"json_path"`
	MarkdownPath      string `toml:"markdown_path"`
	HTMLPath          string `toml:"html_path"`
	PDFPath           string `toml:"pdf_path"`
}

type PreflightConfig struct {
	Enabled    bool   `toml:"enabled"`
	Required   bool   `toml:"required"` // Abort before launching the browser when a probe fails
	HealthPath string `toml:"health_path"`
	SocketPath string `toml:"socket_path"`
	Timeout    string `toml:"timeout"`
}

type StorageConfig struct {
	Enabled bool         `toml:"enabled"`
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup
}

type WatchConfig struct {
	Schedule string `toml:"schedule"` // Standard 5-field cron expression
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
	Dir    string   `toml:"dir"`    // Log directory when file output is enabled
}

// NewDefaultConfig creates a configuration with default values.
// Settle delays match the latencies observed against the chat backend.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Target: TargetConfig{
			BaseURL:    "http://localhost:5000",
			BackendURL: "http://localhost:3001",
		},
		Browser: BrowserConfig{
			Headless:          true,
			WindowWidth:       1920,
			WindowHeight:      1080,
			NavigationTimeout: "30s",
			IdleEvent:         "networkIdle",
		},
		Driver: DriverConfig{
			LocateTimeout: "5s",
			PollInterval:  "250ms",
		},
		Settle: SettleConfig{
			Strategy:     "fixed",
			Navigation:   "3s",
			Chat:         "8s",
			Aggregation:  "12s",
			PollInterval: "500ms",
			StableRounds: 3,
		},
		Artifacts: ArtifactsConfig{
			Dir:      "/tmp",
			Template: "test{ordinal}_{name}.png",
		},
		Report: ReportConfig{
			Title:             "MULTI-PLATFORM E2E TESTS",
			ConsoleErrorLimit: 5,
			ExcerptLength:     240,
		},
		Preflight: PreflightConfig{
			Enabled:    true,
			Required:   false,
			HealthPath: "/health",
			SocketPath: "/socket.io/?EIO=4&transport=websocket",
			Timeout:    "5s",
		},
		Storage: StorageConfig{
			Enabled: true,
			Badger: BadgerConfig{
				Path: "./data/chatprobe",
			},
		},
		Watch: WatchConfig{
			Schedule: "*/30 * * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
			Dir:    "./logs",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI overrides are applied by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal merges into the existing values
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CHATPROBE_ENV"); env != "" {
		config.Environment = env
	}

	if baseURL := os.Getenv("CHATPROBE_BASE_URL"); baseURL != "" {
		config.Target.BaseURL = baseURL
	}
	if backendURL := os.Getenv("CHATPROBE_BACKEND_URL"); backendURL != "" {
		config.Target.BackendURL = backendURL
	}

	if headless := os.Getenv("CHATPROBE_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}

	if strategy := os.Getenv("CHATPROBE_SETTLE_STRATEGY"); strategy != "" {
		config.Settle.Strategy = strategy
	}

	if dir := os.Getenv("CHATPROBE_ARTIFACTS_DIR"); dir != "" {
		config.Artifacts.Dir = dir
	}

	if badgerPath := os.Getenv("CHATPROBE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("CHATPROBE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CHATPROBE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line overrides (highest priority)
func ApplyFlagOverrides(config *Config, baseURL string, headful bool) {
	if baseURL != "" {
		config.Target.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if headful {
		config.Browser.Headless = false
	}
}

// ParseDuration parses a config duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// NavigationTimeoutDuration returns the bounded wait for load + network idle
func (c *BrowserConfig) NavigationTimeoutDuration() time.Duration {
	return ParseDuration(c.NavigationTimeout, 30*time.Second)
}

func (c *DriverConfig) LocateTimeoutDuration() time.Duration {
	return ParseDuration(c.LocateTimeout, 5*time.Second)
}

func (c *DriverConfig) PollIntervalDuration() time.Duration {
	return ParseDuration(c.PollInterval, 250*time.Millisecond)
}

func (c *PreflightConfig) TimeoutDuration() time.Duration {
	return ParseDuration(c.Timeout, 5*time.Second)
}
