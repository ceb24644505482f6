// CLAUDE:SUMMARY Exposes kit Endpoints as MCP tools: typed argument decoding, tool-level errors, unescaped JSON text results.
package kit

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDecoder turns MCP tool arguments into the request an Endpoint expects.
type MCPDecoder func(mcp.CallToolRequest) (any, error)

// RegisterMCPTool registers endpoint as the MCP tool described by tool.
// Decode and endpoint failures are reported as tool errors (IsError) so the
// model sees the message; the JSON-RPC call itself still succeeds.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		request, err := decode(req)
		if err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}
		if _, ok := transportFrom(ctx); !ok {
			ctx = WithTransport(ctx, TransportMCP)
		}

		resp, err := endpoint(ctx, request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := MarshalJSON(resp)
		if err != nil {
			return mcp.NewToolResultError("marshal: " + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

// MarshalJSON encodes v on one line without HTML escaping, so address text
// such as "Marks & Spencer" stays readable.
func MarshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
