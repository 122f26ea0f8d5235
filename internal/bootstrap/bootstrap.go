package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"go.uber.org/zap"

	usageinadapter "apptrack/internal/modules/usage/adapter/in"
	usageoutadapter "apptrack/internal/modules/usage/adapter/out"
	usageout "apptrack/internal/modules/usage/port/out"
	"apptrack/internal/modules/usage/service"
	usageusecase "apptrack/internal/modules/usage/usecase"
	"apptrack/internal/platform/clock"
	"apptrack/internal/platform/config"
	apperrors "apptrack/internal/platform/errors"
	"apptrack/internal/platform/logging"
	"apptrack/internal/platform/metrics"
	uiapp "apptrack/internal/ui/app"
)

type App struct {
	Config  config.Config
	Logger  *logging.Logger
	Metrics *metrics.Metrics

	UsageCLI  usageinadapter.CLIHandler
	UsageTUI  usageinadapter.TUIHandler
	UsageHTTP usageinadapter.HTTPHandler

	closers []io.Closer
}

type Options struct {
	// Probe overrides the configured probe: "xdotool", "plugin[:path]" or
	// "static[:application]".
	Probe string
	Clock clock.Clock
}

// Load reads the config document and wires the application. A config that
// cannot be parsed is logged and replaced by defaults.
func Load(ctx context.Context, configPath string, opts Options) (*App, error) {
	cfg, cfgErr := config.Load(configPath)
	app, err := New(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	if cfgErr != nil {
		app.Logger.Warn("config unreadable, using defaults", zap.String("path", configPath), zap.Error(cfgErr))
	}
	return app, nil
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := newLogger(cfg)
	clk := opts.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	m := metrics.New()
	app := &App{Config: cfg, Logger: logger, Metrics: m}

	var store usageout.HistoryStore
	switch cfg.Storage.Backend {
	case config.BackendLegacy:
		store = usageoutadapter.NewFlatHistoryStore(cfg.HistoryPath(), clk, cfg.MinSessionDurationSeconds)
	default:
		store = usageoutadapter.NewJSONHistoryStore(cfg.HistoryPath(), clk)
	}

	deps := usageusecase.Dependencies{
		Clock:     clk,
		Store:     store,
		Exporters: usageoutadapter.Exporters(),
		Observer:  m,
		Logger:    logger.Named("tracker"),
	}

	if indexPath := cfg.IndexPath(); indexPath != "" {
		projector, err := usageoutadapter.NewSQLiteSessionProjector(indexPath)
		if err != nil {
			return nil, fmt.Errorf("new session projector: %w", err)
		}
		deps.Projector = projector
		app.closers = append(app.closers, projector)
	}

	probe, closer, err := newProbe(cfg, opts.Probe)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	deps.Probe = probe
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	uc := usageusecase.NewInteractor(ctx, deps, usageusecase.Options{
		PollInterval: cfg.PollInterval(),
		ProbeTimeout: cfg.ProbeTimeout(),
		Lifecycle: service.LifecycleConfig{
			MinSessionDurationSeconds:  cfg.MinSessionDurationSeconds,
			ExcludedApplications:       cfg.ExcludedApplications,
			EnableProductivityTracking: cfg.EnableProductivityTracking,
			EnableDetailedTracking:     cfg.EnableDetailedTracking,
		},
	})

	app.UsageCLI = usageinadapter.NewCLIHandler(uc)
	app.UsageTUI = usageinadapter.NewTUIHandler(uc)
	app.UsageHTTP = usageinadapter.NewHTTPHandler(uc, cfg.PollInterval())
	return app, nil
}

func newLogger(cfg config.Config) *logging.Logger {
	if !cfg.EnableLogging {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDevelopment})
	if err != nil {
		logger = logging.NewDefault()
		logger.Warn("invalid log level, using info", zap.String("level", cfg.LogLevel), zap.Error(err))
	}
	return logger
}

func newProbe(cfg config.Config, override string) (usageout.Probe, io.Closer, error) {
	kind, arg, hasArg := strings.Cut(override, ":")
	if kind == "" {
		kind = cfg.Probe.Kind
	}
	switch kind {
	case config.ProbeXdotool:
		return usageoutadapter.NewXdotoolProbe(), nil, nil
	case config.ProbeStatic:
		if !hasArg {
			arg = cfg.Probe.StaticApp
		}
		return usageoutadapter.NewStaticProbe(arg), nil, nil
	case config.ProbePlugin:
		path := cfg.PluginPath()
		if hasArg && arg != "" {
			path = arg
		}
		if path == "" {
			return nil, nil, fmt.Errorf("%w: probe.plugin_path is required for the plugin probe", apperrors.ErrInvalidInput)
		}
		probe := usageoutadapter.NewPluginProbe(path, newPluginLogger(cfg))
		return probe, probe, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown probe kind %q", apperrors.ErrInvalidInput, kind)
	}
}

func newPluginLogger(cfg config.Config) hclog.Logger {
	if !cfg.EnableLogging {
		return hclog.NewNullLogger()
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "probe-plugin",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		Output:     os.Stderr,
		JSONFormat: !cfg.LogDevelopment,
	})
}

// Close releases the session index and any probe plugin process.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

func RunWatch(app *App, refresh time.Duration) error {
	model := uiapp.NewModel(app.UsageTUI, refresh)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
