package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lolsZz/aws-athena-mcp/pkg/query"
)

// getResultInput holds the get_result tool arguments.
type getResultInput struct {
	QueryExecutionID string `json:"query_execution_id"`
	MaxRows          int    `json:"max_rows,omitempty"`
}

// registerGetResult registers the get_result tool with the MCP server.
func (t *Toolkit) registerGetResult(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "get_result",
		Description: "Fetch the results of a completed Athena query by its " +
			"query_execution_id. Fails with QUERY_STILL_RUNNING while the query " +
			"has not finished.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, in getResultInput) (*mcp.CallToolResult, any, error) {
		return t.handleGetResult(ctx, req, in)
	})
}

// handleGetResult handles the get_result tool call.
func (t *Toolkit) handleGetResult(ctx context.Context, _ *mcp.CallToolRequest, in getResultInput) (*mcp.CallToolResult, any, error) {
	if in.QueryExecutionID == "" {
		return errorResult(&query.Error{
			Code:    query.CodeInvalidRequest,
			Message: "query_execution_id is required",
		}), nil, nil
	}
	if in.MaxRows != 0 && (in.MaxRows < 1 || in.MaxRows > t.config.MaxRows) {
		return errorResult(&query.Error{
			Code:    query.CodeInvalidRequest,
			Message: fmt.Sprintf("max_rows must be between 1 and %d", t.config.MaxRows),
		}), nil, nil
	}
	if in.MaxRows == 0 {
		in.MaxRows = t.config.DefaultMaxRows
	}

	result, err := t.runner.Decoder().Fetch(ctx, in.QueryExecutionID, in.MaxRows)
	if err != nil {
		return errorResult(err), nil, nil
	}

	return jsonResult(resultFromQuery(result)), nil, nil
}
