package main

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/go-plugin"

	usageout "apptrack/internal/modules/usage/adapter/out"
	proberpc "apptrack/internal/modules/usage/adapter/out/rpc"
	"apptrack/internal/modules/usage/domain"
	usageport "apptrack/internal/modules/usage/port/out"
)

// staticEnv pins the reported application, for machines without X11.
const staticEnv = "APPTRACK_XPROBE_STATIC"

type server struct {
	probe usageport.Probe
}

func (s *server) GetMetadata(_ context.Context, _ *proberpc.Empty) (*proberpc.Metadata, error) {
	return &proberpc.Metadata{
		Name:     "xprobe",
		Version:  "1.0.0",
		Platform: runtime.GOOS,
	}, nil
}

func (s *server) ActiveWindow(ctx context.Context, _ *proberpc.Empty) (*proberpc.WindowSample, error) {
	sample, err := s.probe.Sample(ctx)
	if err != nil {
		return nil, err
	}
	switch sample.Application {
	case domain.DesktopApplication:
		return &proberpc.WindowSample{Found: false}, nil
	case domain.UnknownProcess:
		return &proberpc.WindowSample{Found: true, WindowTitle: sample.WindowTitle, PID: int32(sample.PID)}, nil
	}
	out := &proberpc.WindowSample{
		Found:       true,
		Resolved:    true,
		Application: sample.Application,
		WindowTitle: sample.WindowTitle,
		PID:         int32(sample.PID),
	}
	if !sample.ProcessStart.IsZero() {
		out.ProcessStartUnixMS = sample.ProcessStart.UnixMilli()
	}
	return out, nil
}

func main() {
	var probe usageport.Probe = usageout.NewXdotoolProbe()
	if app := strings.TrimSpace(os.Getenv(staticEnv)); app != "" {
		probe = usageout.NewStaticProbe(app)
	}
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: proberpc.HandshakeConfig,
		Plugins:         proberpc.PluginMap(&server{probe: probe}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
