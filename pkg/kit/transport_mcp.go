package kit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPDecodeResult is the typed request decoded from tool arguments.
type MCPDecodeResult struct {
	Request   any
	EnrichCtx func(context.Context) context.Context
}

// MCPDecoder turns tool arguments into an endpoint request.
type MCPDecoder func(mcp.CallToolRequest) (*MCPDecodeResult, error)

// RegisterMCPTool exposes endpoint as an MCP tool. Each call gets the "mcp"
// transport and its own request id. Decode and endpoint errors become tool
// errors; the JSON response is returned as text.
func RegisterMCPTool(srv *server.MCPServer, tool mcp.Tool, endpoint Endpoint, decode MCPDecoder) {
	srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded, err := decode(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if decoded == nil {
			decoded = &MCPDecodeResult{}
		}

		ctx = WithRequestID(WithTransport(ctx, "mcp"), uuid.NewString())
		if decoded.EnrichCtx != nil {
			ctx = decoded.EnrichCtx(ctx)
		}

		resp, err := endpoint(ctx, decoded.Request)
		if err != nil {
			return mcp.NewToolResultError(tool.Name + ": " + err.Error()), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("marshal %s response: %v", tool.Name, err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}
