package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	apperrors "apptrack/internal/platform/errors"
)

const envPrefix = "APPTRACK"

// Config holds every tracker option. The top-level keys match the JSON
// config.json written by earlier tracker releases, which parses as YAML.
type Config struct {
	SchemaVersion int `yaml:"schema_version" ignored:"true"`

	HistoryFile                string   `yaml:"log_file" envconfig:"HISTORY_FILE"`
	PollIntervalSeconds        int      `yaml:"check_interval" envconfig:"POLL_INTERVAL"`
	MinSessionDurationSeconds  int      `yaml:"min_session_duration" envconfig:"MIN_SESSION_DURATION"`
	ExcludedApplications       []string `yaml:"excluded_apps" envconfig:"EXCLUDED_APPS"`
	EnableProductivityTracking bool     `yaml:"enable_productivity_tracking" envconfig:"PRODUCTIVITY_TRACKING"`
	EnableDetailedTracking     bool     `yaml:"enable_detailed_tracking" envconfig:"DETAILED_TRACKING"`
	EnableLogging              bool     `yaml:"enable_logging" envconfig:"ENABLE_LOGGING"`
	LogLevel                   string   `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogDevelopment             bool     `yaml:"log_development" envconfig:"LOG_DEVELOPMENT"`

	Storage StorageConfig `yaml:"storage" envconfig:"STORAGE"`
	Probe   ProbeConfig   `yaml:"probe" envconfig:"PROBE"`
	HTTP    HTTPConfig    `yaml:"http" envconfig:"HTTP"`

	// BaseDir anchors relative paths; it is the directory of the loaded file.
	BaseDir string `yaml:"-" ignored:"true"`
}

type StorageConfig struct {
	// Backend is "versioned" (schema 2.0 document) or "legacy" (flat records
	// with in-progress checkpoint recovery).
	Backend string `yaml:"backend"`
	// IndexPath enables the SQLite session index when non-empty.
	IndexPath string `yaml:"index_path" split_words:"true"`
}

type ProbeConfig struct {
	// Kind is "xdotool", "plugin" or "static".
	Kind           string `yaml:"kind"`
	PluginPath     string `yaml:"plugin_path" split_words:"true"`
	StaticApp      string `yaml:"static_app" split_words:"true"`
	TimeoutSeconds int    `yaml:"timeout_seconds" split_words:"true"`
}

type HTTPConfig struct {
	Listen      string   `yaml:"listen"`
	CORSOrigins []string `yaml:"cors_origins" envconfig:"CORS_ORIGINS"`
}

// Load reads the document at path. A missing file yields defaults. A file
// that cannot be parsed also yields defaults, together with a non-nil error
// the caller is expected to log; startup must not block on a bad config.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		cfg.BaseDir = filepath.Dir(path)
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		parsed, parseErr := Parse(raw)
		if parseErr != nil {
			cfg.BaseDir = filepath.Dir(path)
			if envErr := applyEnv(&cfg); envErr != nil {
				return cfg, envErr
			}
			return cfg, parseErr
		}
		cfg = parsed
	}
	cfg.BaseDir = filepath.Dir(path)
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes a config document over the defaults.
func Parse(raw []byte) (Config, error) {
	cfg, err := Migrate(raw)
	if err != nil {
		return Default(), err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("process env overrides: %w", err)
	}
	applyDefaults(cfg)
	return nil
}

// Save rewrites the whole document.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

func (c Config) HistoryPath() string {
	return c.resolve(c.HistoryFile)
}

// IndexPath returns the SQLite index location, or "" when the index is off.
func (c Config) IndexPath() string {
	if strings.TrimSpace(c.Storage.IndexPath) == "" {
		return ""
	}
	return c.resolve(c.Storage.IndexPath)
}

func (c Config) PluginPath() string {
	return c.resolve(c.Probe.PluginPath)
}

func (c Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.BaseDir == "" {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// Keys lists the names accepted by Set and Get, in display order.
func Keys() []string {
	return []string{
		"log_file",
		"check_interval",
		"min_session_duration",
		"excluded_apps",
		"enable_productivity_tracking",
		"enable_detailed_tracking",
		"enable_logging",
		"log_level",
		"storage.backend",
		"storage.index_path",
		"probe.kind",
		"probe.plugin_path",
		"probe.static_app",
		"probe.timeout_seconds",
		"http.listen",
	}
}

func (c Config) Get(key string) (string, error) {
	switch key {
	case "log_file":
		return c.HistoryFile, nil
	case "check_interval":
		return strconv.Itoa(c.PollIntervalSeconds), nil
	case "min_session_duration":
		return strconv.Itoa(c.MinSessionDurationSeconds), nil
	case "excluded_apps":
		return strings.Join(c.ExcludedApplications, ","), nil
	case "enable_productivity_tracking":
		return strconv.FormatBool(c.EnableProductivityTracking), nil
	case "enable_detailed_tracking":
		return strconv.FormatBool(c.EnableDetailedTracking), nil
	case "enable_logging":
		return strconv.FormatBool(c.EnableLogging), nil
	case "log_level":
		return c.LogLevel, nil
	case "storage.backend":
		return c.Storage.Backend, nil
	case "storage.index_path":
		return c.Storage.IndexPath, nil
	case "probe.kind":
		return c.Probe.Kind, nil
	case "probe.plugin_path":
		return c.Probe.PluginPath, nil
	case "probe.static_app":
		return c.Probe.StaticApp, nil
	case "probe.timeout_seconds":
		return strconv.Itoa(c.Probe.TimeoutSeconds), nil
	case "http.listen":
		return c.HTTP.Listen, nil
	}
	return "", fmt.Errorf("%w: %s", apperrors.ErrUnknownConfigKey, key)
}

func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch key {
	case "log_file":
		c.HistoryFile = value
	case "check_interval":
		c.PollIntervalSeconds, err = positiveInt(key, value)
	case "min_session_duration":
		c.MinSessionDurationSeconds, err = nonNegativeInt(key, value)
	case "excluded_apps":
		c.ExcludedApplications = splitList(value)
	case "enable_productivity_tracking":
		c.EnableProductivityTracking, err = parseBool(key, value)
	case "enable_detailed_tracking":
		c.EnableDetailedTracking, err = parseBool(key, value)
	case "enable_logging":
		c.EnableLogging, err = parseBool(key, value)
	case "log_level":
		c.LogLevel = value
	case "storage.backend":
		if value != BackendVersioned && value != BackendLegacy {
			return fmt.Errorf("%w: storage.backend must be %s or %s", apperrors.ErrInvalidInput, BackendVersioned, BackendLegacy)
		}
		c.Storage.Backend = value
	case "storage.index_path":
		c.Storage.IndexPath = value
	case "probe.kind":
		switch value {
		case ProbeXdotool, ProbePlugin, ProbeStatic:
			c.Probe.Kind = value
		default:
			return fmt.Errorf("%w: probe.kind must be one of %s, %s, %s", apperrors.ErrInvalidInput, ProbeXdotool, ProbePlugin, ProbeStatic)
		}
	case "probe.plugin_path":
		c.Probe.PluginPath = value
	case "probe.static_app":
		c.Probe.StaticApp = value
	case "probe.timeout_seconds":
		c.Probe.TimeoutSeconds, err = positiveInt(key, value)
	case "http.listen":
		c.HTTP.Listen = value
	default:
		return fmt.Errorf("%w: %s", apperrors.ErrUnknownConfigKey, key)
	}
	return err
}

func positiveInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperrors.ErrInvalidInput, key)
	}
	return n, nil
}

func nonNegativeInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", apperrors.ErrInvalidInput, key)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", apperrors.ErrInvalidInput, key)
	}
	return b, nil
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
