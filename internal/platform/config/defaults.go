package config

const (
	BackendVersioned = "versioned"
	BackendLegacy    = "legacy"

	ProbeXdotool = "xdotool"
	ProbePlugin  = "plugin"
	ProbeStatic  = "static"

	DefaultHistoryFile = "app_usage_log.json"
)

func Default() Config {
	return Config{
		SchemaVersion:              currentSchemaVersion,
		HistoryFile:                DefaultHistoryFile,
		PollIntervalSeconds:        5,
		MinSessionDurationSeconds:  3,
		ExcludedApplications:       []string{"dwm.exe", "winlogon.exe", "csrss.exe", "searchhost.exe"},
		EnableProductivityTracking: true,
		EnableDetailedTracking:     true,
		EnableLogging:              true,
		LogLevel:                   "info",
		Storage:                    StorageConfig{Backend: BackendVersioned},
		Probe:                      ProbeConfig{Kind: ProbeXdotool, TimeoutSeconds: 2},
		HTTP:                       HTTPConfig{Listen: "127.0.0.1:8765"},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = currentSchemaVersion
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 5
	}
	if cfg.MinSessionDurationSeconds < 0 {
		cfg.MinSessionDurationSeconds = 0
	}
	if cfg.ExcludedApplications == nil {
		cfg.ExcludedApplications = []string{}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendVersioned
	}
	if cfg.Probe.Kind == "" {
		cfg.Probe.Kind = ProbeXdotool
	}
	if cfg.Probe.TimeoutSeconds <= 0 {
		cfg.Probe.TimeoutSeconds = 2
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = "127.0.0.1:8765"
	}
}
