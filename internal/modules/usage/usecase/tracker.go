package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"apptrack/internal/modules/usage/domain"
	"apptrack/internal/modules/usage/dto"
	usagein "apptrack/internal/modules/usage/port/in"
	usageout "apptrack/internal/modules/usage/port/out"
	"apptrack/internal/modules/usage/service"
	"apptrack/internal/platform/clock"
	apperrors "apptrack/internal/platform/errors"
)

type Options struct {
	PollInterval time.Duration
	ProbeTimeout time.Duration
	Lifecycle    service.LifecycleConfig
}

type Dependencies struct {
	Clock     clock.Clock
	Probe     usageout.Probe
	Store     usageout.HistoryStore
	Projector usageout.SessionProjector
	Exporters []usageout.Exporter
	Observer  usageout.Observer
	Logger    *zap.Logger
}

// Interactor owns the polling loop. mu guards lifecycle and history;
// writeMu serializes mutate-then-save sequences so saves land in order.
type Interactor struct {
	clock     clock.Clock
	probe     usageout.Probe
	store     usageout.HistoryStore
	projector usageout.SessionProjector
	exporters map[string]usageout.Exporter
	observer  usageout.Observer
	logger    *zap.Logger
	opts      Options

	writeMu   sync.Mutex
	mu        sync.RWMutex
	lifecycle *service.LifecycleService
	history   *domain.History
	lastSaved time.Time
	lastErr   string

	running atomic.Bool
	ctlMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewInteractor loads the persisted history. A load diagnostic is logged and
// tracking starts from whatever the store could recover.
func NewInteractor(ctx context.Context, deps Dependencies, opts Options) usagein.Usecase {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 2 * time.Second
	}
	exporters := make(map[string]usageout.Exporter, len(deps.Exporters))
	for _, exp := range deps.Exporters {
		exporters[exp.Format()] = exp
	}

	i := &Interactor{
		clock:     deps.Clock,
		probe:     deps.Probe,
		store:     deps.Store,
		projector: deps.Projector,
		exporters: exporters,
		observer:  deps.Observer,
		logger:    deps.Logger,
		opts:      opts,
		lifecycle: service.NewLifecycleService(deps.Clock, opts.Lifecycle),
		history:   domain.NewHistory(),
	}
	if deps.Store != nil {
		history, err := deps.Store.Load(ctx)
		if err != nil {
			i.logger.Warn("history load degraded", zap.Error(err))
			i.lastErr = err.Error()
		}
		if history != nil {
			i.history = history
		}
	}
	i.logger.Info("history loaded",
		zap.Int("applications", i.history.Len()),
		zap.Int("sessions", i.history.SessionCount()))
	return i
}

// ─── control ─────────────────────────────────────────────────────────────────

// Run polls until ctx is cancelled or Stop is called, then closes the open
// session before returning.
func (i *Interactor) Run(ctx context.Context) error {
	loopCtx, done, err := i.begin(ctx)
	if err != nil {
		return err
	}
	i.loop(ctx, loopCtx, done)
	return nil
}

// Start runs the loop in the background until Stop.
func (i *Interactor) Start(_ context.Context) error {
	parent := context.Background()
	loopCtx, done, err := i.begin(parent)
	if err != nil {
		return err
	}
	go i.loop(parent, loopCtx, done)
	return nil
}

// Stop halts the running loop, however it was launched, and waits until the
// open session has been closed and persisted. Stopping an idle tracker is a
// no-op.
func (i *Interactor) Stop(ctx context.Context) error {
	i.ctlMu.Lock()
	cancel, done := i.cancel, i.done
	i.ctlMu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for tracker stop: %w", ctx.Err())
	}
}

// begin registers a new loop. Only one loop runs at a time.
func (i *Interactor) begin(parent context.Context) (context.Context, chan struct{}, error) {
	i.ctlMu.Lock()
	defer i.ctlMu.Unlock()
	if i.probe == nil {
		return nil, nil, apperrors.ErrProbeUnavailable
	}
	if i.cancel != nil {
		return nil, nil, apperrors.ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	i.cancel, i.done = cancel, done
	i.running.Store(true)
	return loopCtx, done, nil
}

func (i *Interactor) end(done chan struct{}) {
	i.ctlMu.Lock()
	i.cancel()
	i.cancel, i.done = nil, nil
	i.running.Store(false)
	i.ctlMu.Unlock()
	close(done)
}

func (i *Interactor) loop(parent, ctx context.Context, done chan struct{}) {
	defer i.end(done)
	i.observer.TrackerRunning(true)
	defer i.observer.TrackerRunning(false)
	i.logger.Info("tracking started", zap.Duration("poll_interval", i.opts.PollInterval))

	ticker := time.NewTicker(i.opts.PollInterval)
	defer ticker.Stop()

	i.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			i.shutdown(context.WithoutCancel(parent))
			i.logger.Info("tracking stopped")
			return
		case <-ticker.C:
			i.tick(ctx)
		}
	}
}

func (i *Interactor) Poll(ctx context.Context) error {
	if i.probe == nil {
		return apperrors.ErrProbeUnavailable
	}
	return i.tick(ctx)
}

// ─── loop internals ──────────────────────────────────────────────────────────

func (i *Interactor) tick(ctx context.Context) error {
	i.observer.PollTick()
	probeCtx, cancel := context.WithTimeout(ctx, i.opts.ProbeTimeout)
	sample, err := i.probe.Sample(probeCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		i.observer.ProbeFailed()
		i.logger.Warn("probe failed", zap.Error(err))
		return fmt.Errorf("probe sample: %w", err)
	}

	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	i.mu.Lock()
	transition := i.lifecycle.Observe(sample)
	snapshot := i.applyLocked(transition)
	current, active := i.lifecycle.Current()
	i.mu.Unlock()

	i.record(transition)
	if snapshot != nil {
		i.persist(ctx, snapshot, *transition.Closed)
	}
	// A one-off Poll leaves nothing behind for the next Load to recover.
	if i.running.Load() {
		i.checkpoint(ctx, current, active)
	}
	return nil
}

func (i *Interactor) shutdown(ctx context.Context) {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	i.mu.Lock()
	transition := i.lifecycle.Stop()
	snapshot := i.applyLocked(transition)
	i.mu.Unlock()

	i.record(transition)
	if snapshot != nil {
		i.persist(ctx, snapshot, *transition.Closed)
	}
	i.checkpoint(ctx, domain.Session{}, false)
}

// applyLocked appends a retained session and returns a snapshot to save,
// or nil when history did not change. Caller holds mu.
func (i *Interactor) applyLocked(transition service.Transition) *domain.History {
	if transition.Closed == nil || !transition.Retained {
		return nil
	}
	if err := i.history.Append(*transition.Closed); err != nil {
		i.logger.Error("append session", zap.Error(err))
		return nil
	}
	return i.history.Clone()
}

func (i *Interactor) record(transition service.Transition) {
	if closed := transition.Closed; closed != nil {
		i.observer.SessionClosed(string(closed.Category), closed.DurationSeconds, transition.Retained)
		i.logger.Info("session closed",
			zap.String("app", closed.Application),
			zap.String("category", string(closed.Category)),
			zap.Int("duration_seconds", closed.DurationSeconds),
			zap.Bool("retained", transition.Retained))
	}
	if opened := transition.Opened; opened != nil {
		i.observer.SessionOpened(string(opened.Category))
		i.logger.Debug("session opened",
			zap.String("app", opened.Application),
			zap.String("category", string(opened.Category)),
			zap.String("window_title", opened.WindowTitle))
	}
}

func (i *Interactor) persist(ctx context.Context, snapshot *domain.History, closed domain.Session) {
	if i.store != nil {
		if err := i.store.Save(ctx, snapshot); err != nil {
			i.observer.SaveFailed()
			i.logger.Warn("history save failed", zap.Error(err))
			i.setResult(time.Time{}, err)
		} else {
			i.setResult(i.clock.Now(), nil)
		}
	}
	if i.projector != nil {
		if err := i.projector.UpsertSessions(ctx, []domain.Session{closed}); err != nil {
			i.logger.Warn("session index update failed", zap.Error(err))
		}
	}
}

func (i *Interactor) checkpoint(ctx context.Context, current domain.Session, active bool) {
	cp, ok := i.store.(usageout.Checkpointer)
	if !ok {
		return
	}
	var err error
	if active {
		err = cp.Checkpoint(ctx, current)
	} else {
		err = cp.ClearCheckpoint(ctx)
	}
	if err != nil {
		i.logger.Warn("checkpoint failed", zap.Error(err))
	}
}

func (i *Interactor) setResult(savedAt time.Time, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.lastErr = err.Error()
		return
	}
	i.lastSaved = savedAt
	i.lastErr = ""
}

func (i *Interactor) snapshot() *domain.History {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.history.Clone()
}

func (i *Interactor) analyzer() *service.Analyzer {
	return service.NewAnalyzer(i.snapshot(), i.clock)
}

// ─── queries ─────────────────────────────────────────────────────────────────

func (i *Interactor) Status(_ context.Context) (dto.StatusOutput, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := dto.StatusOutput{
		Running:       i.running.Load(),
		TotalApps:     i.history.Len(),
		TotalSessions: i.history.SessionCount(),
		LastSavedAt:   i.lastSaved,
		LastError:     i.lastErr,
	}
	if current, ok := i.lifecycle.Current(); ok {
		session := toSessionOutput(current)
		out.Current = &session
	}
	return out, nil
}

func (i *Interactor) History(_ context.Context) (dto.HistoryOutput, error) {
	return toHistoryOutput(i.snapshot()), nil
}

func (i *Interactor) DailyUsage(_ context.Context, input dto.DailyUsageInput) (dto.DailyUsageOutput, error) {
	a := i.analyzer()
	date := a.Today()
	if raw := strings.TrimSpace(input.Date); raw != "" {
		parsed, err := time.ParseInLocation(domain.DateLayout, raw, time.Local)
		if err != nil {
			return dto.DailyUsageOutput{}, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrInvalidInput)
		}
		date = parsed
	}
	usage := a.DailyUsage(date)
	sort.SliceStable(usage, func(x, y int) bool { return usage[x].Seconds > usage[y].Seconds })
	out := dto.DailyUsageOutput{Date: date.Format(domain.DateLayout), Applications: toAppUsageOutputs(usage)}
	for _, u := range usage {
		out.TotalSeconds += u.Seconds
	}
	return out, nil
}

func (i *Interactor) TopApplications(_ context.Context, n int) ([]dto.AppUsageOutput, error) {
	return toAppUsageOutputs(i.analyzer().TopApplications(n)), nil
}

func (i *Interactor) CategoryAnalysis(_ context.Context) ([]dto.CategoryOutput, error) {
	return toCategoryOutputs(i.analyzer().CategoryAnalysis()), nil
}

func (i *Interactor) Stats(_ context.Context) (dto.StatsOutput, error) {
	return toStatsOutput(i.analyzer().Snapshot()), nil
}

func (i *Interactor) Report(_ context.Context) (dto.ReportOutput, error) {
	a := i.analyzer()
	return dto.ReportOutput{GeneratedAt: a.Today(), Text: a.FormattedReport()}, nil
}

// ─── maintenance ─────────────────────────────────────────────────────────────

func (i *Interactor) Backup(ctx context.Context) (dto.BackupOutput, error) {
	if i.store == nil {
		return dto.BackupOutput{}, nil
	}
	path, err := i.store.Backup(ctx)
	if err != nil {
		return dto.BackupOutput{}, fmt.Errorf("backup history: %w", err)
	}
	if path != "" {
		i.logger.Info("history backed up", zap.String("path", path))
	}
	return dto.BackupOutput{Path: path, Created: path != ""}, nil
}

func (i *Interactor) Export(_ context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = "json"
	}
	exporter, ok := i.exporters[format]
	if !ok {
		return dto.ExportOutput{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, input.Format)
	}
	a := i.analyzer()
	now := a.Today()
	body, err := exporter.Export(a.History(), a.FormattedReport(), now)
	if err != nil {
		return dto.ExportOutput{}, fmt.Errorf("export %s: %w", format, err)
	}
	return dto.ExportOutput{
		Format:      format,
		ContentType: exporter.ContentType(),
		Filename:    fmt.Sprintf("app_usage_%s.%s", now.Format("20060102_150405"), exporter.Extension()),
		Body:        body,
	}, nil
}

func (i *Interactor) Reindex(ctx context.Context) (dto.ReindexOutput, error) {
	if i.projector == nil {
		return dto.ReindexOutput{}, apperrors.ErrProjectionDisabled
	}
	snapshot := i.snapshot()
	if err := i.projector.Reset(ctx); err != nil {
		return dto.ReindexOutput{}, err
	}
	sessions := make([]domain.Session, 0, snapshot.SessionCount())
	snapshot.Each(func(_ string, s []domain.Session) {
		sessions = append(sessions, s...)
	})
	if err := i.projector.UpsertSessions(ctx, sessions); err != nil {
		return dto.ReindexOutput{}, err
	}
	return dto.ReindexOutput{Sessions: len(sessions)}, nil
}

type noopObserver struct{}

func (noopObserver) SessionOpened(string)            {}
func (noopObserver) SessionClosed(string, int, bool) {}
func (noopObserver) PollTick()                       {}
func (noopObserver) ProbeFailed()                    {}
func (noopObserver) SaveFailed()                     {}
func (noopObserver) TrackerRunning(bool)             {}
