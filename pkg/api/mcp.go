package api

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/himnario/pkg/kit"
)

// RegisterMCPTools registers the hymn MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eps Endpoints) {
	registerListHymns(srv, eps)
	registerSearchHymns(srv, eps)
	registerGetHymn(srv, eps)
	registerSuggestHymns(srv, eps)
}

func registerListHymns(srv *server.MCPServer, eps Endpoints) {
	tool := mcp.NewTool("list_hymns",
		mcp.WithDescription("List every hymn (id, title, author) sorted alphabetically by title."),
	)

	kit.RegisterMCPTool(srv, tool, eps.List, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}

func registerSearchHymns(srv *server.MCPServer, eps Endpoints) {
	tool := mcp.NewTool("search_hymns",
		mcp.WithDescription("Search hymn titles, ignoring case and accents (\"senor\" finds \"Señor\")."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for in hymn titles")),
		mcp.WithBoolean("rank", mcp.Description("Order by match quality (exact, prefix, substring) instead of alphabetically")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (0 for all)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.Search, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		query, _ := args["query"].(string)
		rank, _ := args["rank"].(bool)
		limit, _ := args["limit"].(float64)
		return &kit.MCPDecodeResult{Request: &searchReq{Query: query, Rank: rank, Limit: int(limit)}}, nil
	})
}

func registerGetHymn(srv *server.MCPServer, eps Endpoints) {
	tool := mcp.NewTool("get_hymn",
		mcp.WithDescription("Get the full lyrics of a hymn by id, with verses and chorus split out."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Hymn id as returned by list_hymns or search_hymns")),
	)

	kit.RegisterMCPTool(srv, tool, eps.Get, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		id, _ := req.GetArguments()["id"].(string)
		return &kit.MCPDecodeResult{Request: &getHymnReq{ID: strings.TrimSpace(id)}}, nil
	})
}

func registerSuggestHymns(srv *server.MCPServer, eps Endpoints) {
	tool := mcp.NewTool("suggest_hymns",
		mcp.WithDescription("Suggest hymn titles for a misspelled or abbreviated query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Approximate title")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of suggestions (default 5)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.Suggest, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		query, _ := args["query"].(string)
		limit, _ := args["limit"].(float64)
		return &kit.MCPDecodeResult{Request: &suggestReq{Query: query, Limit: int(limit)}}, nil
	})
}
