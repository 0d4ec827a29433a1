package api

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/himnario/pkg/catalog"
	"github.com/hazyhaar/himnario/pkg/hymn"
	"github.com/hazyhaar/himnario/pkg/kit"
)

// Shared request/response types used by both HTTP and MCP transports.

type listResponse struct {
	Total int               `json:"total"`
	Hymns []hymn.IndexEntry `json:"hymns"`
}

type searchReq struct {
	Query string
	Rank  bool
	Limit int
}

type searchResponse struct {
	Query string           `json:"query"`
	Total int              `json:"total"`
	Hymns []catalog.Result `json:"hymns"`
}

type getHymnReq struct {
	ID string
}

type hymnResponse struct {
	*hymn.Hymn
	Sections hymn.Content `json:"sections"`
}

type suggestReq struct {
	Query string
	Limit int
}

type suggestResponse struct {
	Query       string            `json:"query"`
	Suggestions []hymn.IndexEntry `json:"suggestions"`
}

// Endpoints are the catalog actions exposed by every transport.
type Endpoints struct {
	List    kit.Endpoint
	Search  kit.Endpoint
	Get     kit.Endpoint
	Suggest kit.Endpoint
}

// NewEndpoints builds the endpoints over cat, each wrapped with logging.
func NewEndpoints(cat *catalog.Catalog, logger *slog.Logger) Endpoints {
	return Endpoints{
		List:    kit.Logging(logger, "list_hymns")(listEndpoint(cat)),
		Search:  kit.Logging(logger, "search_hymns")(searchEndpoint(cat)),
		Get:     kit.Logging(logger, "get_hymn")(getHymnEndpoint(cat)),
		Suggest: kit.Logging(logger, "suggest_hymns")(suggestEndpoint(cat)),
	}
}

func listEndpoint(cat *catalog.Catalog) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		entries, err := cat.List(ctx)
		if err != nil {
			return nil, err
		}
		return listResponse{Total: len(entries), Hymns: entries}, nil
	}
}

func searchEndpoint(cat *catalog.Catalog) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*searchReq)
		results, err := cat.Search(ctx, req.Query, catalog.SearchOptions{
			RankByScore: req.Rank,
			Limit:       req.Limit,
		})
		if err != nil {
			return nil, err
		}
		return searchResponse{Query: req.Query, Total: len(results), Hymns: results}, nil
	}
}

func getHymnEndpoint(cat *catalog.Catalog) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*getHymnReq)
		h, err := cat.Get(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return hymnResponse{Hymn: h, Sections: hymn.ParseContent(h.Content)}, nil
	}
}

func suggestEndpoint(cat *catalog.Catalog) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*suggestReq)
		entries, err := cat.Suggest(ctx, req.Query, req.Limit)
		if err != nil {
			return nil, err
		}
		return suggestResponse{Query: req.Query, Suggestions: entries}, nil
	}
}
