package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"apptrack/internal/modules/usage/domain"
	usageout "apptrack/internal/modules/usage/port/out"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// switchCounter counts how often the sampled application changed.
type switchCounter struct {
	mu       sync.Mutex
	last     string
	switches int
}

func (c *switchCounter) observe(sample domain.Sample) domain.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last != "" && sample.Application != c.last {
		c.switches++
	}
	c.last = sample.Application
	sample.SwitchCount = c.switches
	return sample
}

// XdotoolProbe reads the focused X11 window through xdotool and resolves
// its process name from procfs.
type XdotoolProbe struct {
	run      CommandRunner
	procRoot string
	counter  switchCounter
}

type XdotoolOption func(*XdotoolProbe)

func WithCommandRunner(run CommandRunner) XdotoolOption {
	return func(p *XdotoolProbe) { p.run = run }
}

func WithProcRoot(root string) XdotoolOption {
	return func(p *XdotoolProbe) { p.procRoot = root }
}

func NewXdotoolProbe(opts ...XdotoolOption) *XdotoolProbe {
	p := &XdotoolProbe{run: execRunner, procRoot: "/proc"}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ usageout.Probe = (*XdotoolProbe)(nil)

func (p *XdotoolProbe) Sample(ctx context.Context) (domain.Sample, error) {
	sample, err := p.read(ctx)
	if err != nil {
		return domain.Sample{}, err
	}
	return p.counter.observe(sample), nil
}

func (p *XdotoolProbe) read(ctx context.Context) (domain.Sample, error) {
	out, err := p.run(ctx, "xdotool", "getactivewindow", "getwindowname", "getwindowpid")
	if err != nil {
		if ctx.Err() != nil {
			return domain.Sample{}, fmt.Errorf("xdotool: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// xdotool exits non-zero when nothing has focus.
			return domain.DesktopSample(), nil
		}
		return domain.Sample{}, fmt.Errorf("xdotool: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	title := strings.TrimSpace(lines[0])
	if len(lines) < 2 {
		if title == "" {
			return domain.DesktopSample(), nil
		}
		return domain.PlaceholderSample(title, 0), nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(lines[len(lines)-1]))
	if err != nil || pid <= 0 {
		return domain.PlaceholderSample(title, 0), nil
	}
	name, err := p.processName(pid)
	if err != nil {
		return domain.PlaceholderSample(title, pid), nil
	}
	return domain.Sample{Application: name, WindowTitle: title, PID: pid}, nil
}

func (p *XdotoolProbe) processName(pid int) (string, error) {
	raw, err := os.ReadFile(filepath.Join(p.procRoot, strconv.Itoa(pid), "comm"))
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(string(raw))
	if name == "" {
		return "", fmt.Errorf("empty comm for pid %d", pid)
	}
	return name, nil
}
