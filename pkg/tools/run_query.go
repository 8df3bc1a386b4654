package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lolsZz/aws-athena-mcp/pkg/query"
)

// runQueryInput holds the run_query tool arguments.
type runQueryInput struct {
	Database  string `json:"database"`
	Query     string `json:"query"`
	MaxRows   int    `json:"max_rows,omitempty"`
	TimeoutMS int64  `json:"timeout_ms,omitempty"`
}

// registerRunQuery registers the run_query tool with the MCP server.
func (t *Toolkit) registerRunQuery(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: "run_query",
		Description: "Execute a SQL query against AWS Athena and wait for the result. " +
			"If the query does not finish within timeout_ms (default 60000), the query " +
			"execution id is returned instead; use get_status and get_result to retrieve " +
			"the result later.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, in runQueryInput) (*mcp.CallToolResult, any, error) {
		return t.handleRunQuery(ctx, req, in)
	})
}

// handleRunQuery handles the run_query tool call.
func (t *Toolkit) handleRunQuery(ctx context.Context, _ *mcp.CallToolRequest, in runQueryInput) (*mcp.CallToolResult, any, error) {
	if err := t.validateRunQuery(in); err != nil {
		return errorResult(err), nil, nil
	}
	if in.MaxRows == 0 {
		in.MaxRows = t.config.DefaultMaxRows
	}

	outcome, err := t.runner.Run(ctx, query.Input{
		Database:  in.Database,
		SQL:       in.Query,
		MaxRows:   in.MaxRows,
		TimeoutMS: in.TimeoutMS,
	})
	if err != nil {
		return errorResult(err), nil, nil
	}

	if outcome.Pending != nil {
		return jsonResult(pendingOutput{
			QueryExecutionID: outcome.Pending.ExecutionID,
			State:            string(outcome.Pending.State),
			Message: "Query is still running. Call get_status with this query_execution_id " +
				"and get_result once it has succeeded.",
		}), nil, nil
	}

	return jsonResult(resultFromQuery(outcome.Result)), nil, nil
}

// validateRunQuery enforces argument bounds before any backend call.
func (t *Toolkit) validateRunQuery(in runQueryInput) error {
	if in.MaxRows != 0 && (in.MaxRows < 1 || in.MaxRows > t.config.MaxRows) {
		return &query.Error{
			Code:    query.CodeInvalidRequest,
			Message: fmt.Sprintf("max_rows must be between 1 and %d", t.config.MaxRows),
		}
	}
	if in.TimeoutMS != 0 && in.TimeoutMS < t.config.MinTimeoutMS {
		return &query.Error{
			Code:    query.CodeInvalidRequest,
			Message: fmt.Sprintf("timeout_ms must be at least %d", t.config.MinTimeoutMS),
		}
	}
	return nil
}
