package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lolsZz/aws-athena-mcp/pkg/query"
)

// getStatusInput holds the get_status tool arguments.
type getStatusInput struct {
	QueryExecutionID string `json:"query_execution_id"`
}

// registerGetStatus registers the get_status tool with the MCP server.
func (t *Toolkit) registerGetStatus(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "get_status",
		Description: "Get the current execution state of an Athena query by its " +
			"query_execution_id, including bytes scanned and engine execution time.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, in getStatusInput) (*mcp.CallToolResult, any, error) {
		return t.handleGetStatus(ctx, req, in)
	})
}

// handleGetStatus handles the get_status tool call.
func (t *Toolkit) handleGetStatus(ctx context.Context, _ *mcp.CallToolRequest, in getStatusInput) (*mcp.CallToolResult, any, error) {
	if in.QueryExecutionID == "" {
		return errorResult(&query.Error{
			Code:    query.CodeInvalidRequest,
			Message: "query_execution_id is required",
		}), nil, nil
	}

	st, err := t.runner.Status(ctx, in.QueryExecutionID)
	if err != nil {
		return errorResult(err), nil, nil
	}

	return jsonResult(statusOutput{
		QueryExecutionID:  in.QueryExecutionID,
		State:             string(st.State),
		StateChangeReason: st.StateChangeReason,
		BytesScanned:      st.Statistics.BytesScanned,
		ExecutionTimeMS:   st.Statistics.ExecutionTimeMillis,
	}), nil, nil
}
