package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	proberpc "apptrack/internal/modules/usage/adapter/out/rpc"
	"apptrack/internal/modules/usage/domain"
	apperrors "apptrack/internal/platform/errors"
)

const defaultPluginStartTimeout = 3 * time.Second

// PluginProbe samples the focused window through an external probe binary
// speaking the probe plugin protocol. The plugin process is started on first
// use and restarted after it dies.
type PluginProbe struct {
	binary       string
	startTimeout time.Duration
	logger       hclog.Logger
	counter      switchCounter

	mu     sync.Mutex
	client *plugin.Client
	probe  proberpc.WindowProbeClient
}

func NewPluginProbe(binary string, logger hclog.Logger) *PluginProbe {
	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel})
	}
	return &PluginProbe{binary: binary, startTimeout: defaultPluginStartTimeout, logger: logger}
}

func (p *PluginProbe) Sample(ctx context.Context) (domain.Sample, error) {
	client, err := p.connect()
	if err != nil {
		return domain.Sample{}, err
	}
	window, err := client.ActiveWindow(ctx)
	if err != nil {
		p.reset()
		return domain.Sample{}, fmt.Errorf("active window: %w", err)
	}
	return p.counter.observe(toSample(window)), nil
}

// Metadata asks the plugin to describe itself.
func (p *PluginProbe) Metadata(ctx context.Context) (proberpc.Metadata, error) {
	client, err := p.connect()
	if err != nil {
		return proberpc.Metadata{}, err
	}
	meta, err := client.GetMetadata(ctx)
	if err != nil {
		p.reset()
		return proberpc.Metadata{}, fmt.Errorf("get metadata: %w", err)
	}
	return *meta, nil
}

func (p *PluginProbe) Close() error {
	p.reset()
	return nil
}

func toSample(window *proberpc.WindowSample) domain.Sample {
	if window == nil || !window.Found {
		return domain.DesktopSample()
	}
	if !window.Resolved || window.Application == "" {
		return domain.PlaceholderSample(window.WindowTitle, int(window.PID))
	}
	sample := domain.Sample{Application: window.Application, WindowTitle: window.WindowTitle, PID: int(window.PID)}
	if window.ProcessStartUnixMS > 0 {
		sample.ProcessStart = time.UnixMilli(window.ProcessStartUnixMS)
	}
	return sample
}

func (p *PluginProbe) connect() (proberpc.WindowProbeClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.probe != nil && p.client != nil && !p.client.Exited() {
		return p.probe, nil
	}
	p.killLocked()

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  proberpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          proberpc.PluginMap(nil),
		Cmd:              exec.Command(p.binary),
		Managed:          true,
		StartTimeout:     p.startTimeout,
		Logger:           p.logger,
	})
	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("%w: start plugin %s: %v", apperrors.ErrProbeUnavailable, p.binary, err)
	}
	raw, err := rpcClient.Dispense(proberpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("%w: dispense plugin: %v", apperrors.ErrProbeUnavailable, err)
	}
	typed, ok := raw.(proberpc.WindowProbeClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("%w: plugin rpc client type mismatch", apperrors.ErrProbeUnavailable)
	}
	p.client = client
	p.probe = typed
	return typed, nil
}

func (p *PluginProbe) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
}

func (p *PluginProbe) killLocked() {
	if p.client != nil {
		p.client.Kill()
	}
	p.client = nil
	p.probe = nil
}
