package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey       = "probe"
	serviceName        = "apptrack.probe.v1.WindowProbe"
	jsonCodecName      = "json"
	methodGetMetadata  = "/" + serviceName + "/GetMetadata"
	methodActiveWindow = "/" + serviceName + "/ActiveWindow"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "APPTRACK_PROBE_PLUGIN",
	MagicCookieValue: "apptrack",
}

// codec carries messages as JSON so plugins need no generated protobuf code.
type codec struct{}

func (codec) Name() string { return jsonCodecName }

func (codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func init() {
	encoding.RegisterCodec(codec{})
}

type Empty struct{}

type Metadata struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// WindowSample is the focused window as seen by the plugin. Found is false
// when no window has focus.
type WindowSample struct {
	Found              bool   `json:"found"`
	Application        string `json:"application"`
	WindowTitle        string `json:"window_title"`
	PID                int32  `json:"pid"`
	ProcessStartUnixMS int64  `json:"process_start_unix_ms"`
	Resolved           bool   `json:"resolved"`
}

type WindowProbeServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	ActiveWindow(ctx context.Context, in *Empty) (*WindowSample, error)
}

type WindowProbeClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	ActiveWindow(ctx context.Context) (*WindowSample, error)
}

type windowProbeClient struct {
	conn grpc.ClientConnInterface
}

func NewWindowProbeClient(conn grpc.ClientConnInterface) WindowProbeClient {
	return windowProbeClient{conn: conn}
}

func invoke[T any](ctx context.Context, conn grpc.ClientConnInterface, method string) (*T, error) {
	reply := new(T)
	if err := conn.Invoke(ctx, method, &Empty{}, reply, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return reply, nil
}

func (c windowProbeClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	return invoke[Metadata](ctx, c.conn, methodGetMetadata)
}

func (c windowProbeClient) ActiveWindow(ctx context.Context) (*WindowSample, error) {
	return invoke[WindowSample](ctx, c.conn, methodActiveWindow)
}

// unary adapts a no-argument server method to a grpc.MethodHandler.
func unary[T any](method string, call func(context.Context, *Empty) (*T, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &Empty{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		return interceptor(ctx, req, &grpc.UnaryServerInfo{Server: srv, FullMethod: method}, func(ctx context.Context, in any) (any, error) {
			empty, ok := in.(*Empty)
			if !ok {
				return nil, fmt.Errorf("%s: unexpected request %T", method, in)
			}
			return call(ctx, empty)
		})
	}
}

func RegisterWindowProbeServer(server grpc.ServiceRegistrar, impl WindowProbeServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*WindowProbeServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetMetadata", Handler: unary(methodGetMetadata, impl.GetMetadata)},
			{MethodName: "ActiveWindow", Handler: unary(methodActiveWindow, impl.ActiveWindow)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/probe-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl WindowProbeServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterWindowProbeServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewWindowProbeClient(conn), nil
}

func PluginMap(impl WindowProbeServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
