package kit

import "context"

type contextKey string

const (
	transportKey contextKey = "kit_transport"
	requestIDKey contextKey = "kit_request_id"
)

// Transports recorded on the call context.
const (
	TransportHTTP    = "http"
	TransportMCP     = "mcp"      // in-process MCP (stdio, tests)
	TransportMCPQUIC = "mcp_quic" // MCP over a QUIC stream
)

// WithTransport records which transport delivered the call.
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, transportKey, t)
}

// GetTransport returns the recorded transport, TransportHTTP when unset.
func GetTransport(ctx context.Context) string {
	if v, ok := transportFrom(ctx); ok {
		return v
	}
	return TransportHTTP
}

func transportFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(transportKey).(string)
	return v, ok && v != ""
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
