package mission

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/designscozyroom-lab/missioncontrol/internal/search"
)

// Searcher runs full-text queries. *search.Store satisfies it.
type Searcher interface {
	Query(query string, kind search.Kind, limit int) ([]search.Result, error)
}

func registerSearch(r *registrar, idx Searcher) {
	r.add(
		mcp.NewTool("search",
			mcp.WithDescription("Full-text search over task titles and descriptions, thread comments and documents. Use before starting work to find related tasks and prior findings."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search words (all must match)")),
			mcp.WithString("kind", mcp.Description("Limit to one kind: task, message or document")),
			mcp.WithNumber("limit", mcp.Description("Max results (default 10)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			query, err := requireString(args, "query")
			if err != nil {
				return nil, err
			}
			kind := search.Kind(optionalString(args, "kind"))
			if kind != "" && !kind.Valid() {
				return nil, fmt.Errorf("invalid kind %q (want task, message or document)", kind)
			}
			limit := int(optionalFloat64(args, "limit", 10))

			results, err := idx.Query(query, kind, limit)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return mcp.NewToolResultText(fmt.Sprintf("No results for %q.", query)), nil
			}
			var b strings.Builder
			fmt.Fprintf(&b, "%d result(s) for %q:\n", len(results), query)
			for _, res := range results {
				fmt.Fprintf(&b, "\n[%s %s] %s", res.Kind, res.RefID, res.Title)
				if res.TaskID != "" && res.TaskID != res.RefID {
					fmt.Fprintf(&b, " (task %s)", res.TaskID)
				}
				fmt.Fprintf(&b, "\n  %s\n", res.Snippet)
			}
			return mcp.NewToolResultText(b.String()), nil
		},
	)
}
