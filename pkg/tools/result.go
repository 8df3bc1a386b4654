package tools

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lolsZz/aws-athena-mcp/pkg/query"
)

// queryResultOutput is the JSON body for a completed query.
type queryResultOutput struct {
	Columns          []string             `json:"columns"`
	Rows             []map[string]*string `json:"rows"`
	RowCount         int                  `json:"row_count"`
	QueryExecutionID string               `json:"query_execution_id"`
	BytesScanned     int64                `json:"bytes_scanned"`
	ExecutionTimeMS  int64                `json:"execution_time_ms"`
}

// pendingOutput is the JSON body returned when the poll budget elapsed
// before the query finished. Not an error: the caller follows up with
// get_status / get_result using the execution id.
type pendingOutput struct {
	QueryExecutionID string `json:"query_execution_id"`
	State            string `json:"state"`
	Message          string `json:"message"`
}

// statusOutput is the JSON body for get_status.
type statusOutput struct {
	QueryExecutionID  string `json:"query_execution_id"`
	State             string `json:"state"`
	StateChangeReason string `json:"state_change_reason,omitempty"`
	BytesScanned      int64  `json:"bytes_scanned"`
	ExecutionTimeMS   int64  `json:"execution_time_ms"`
}

// errorOutput is the JSON body for taxonomy errors.
type errorOutput struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	QueryExecutionID string `json:"query_execution_id,omitempty"`
}

// resultFromQuery shapes a query.Result for tool output.
func resultFromQuery(r *query.Result) queryResultOutput {
	return queryResultOutput{
		Columns:          r.Columns,
		Rows:             r.Rows,
		RowCount:         len(r.Rows),
		QueryExecutionID: r.ExecutionID,
		BytesScanned:     r.BytesScanned,
		ExecutionTimeMS:  r.ExecutionTimeMillis,
	}
}

// jsonResult marshals v as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
			IsError: true,
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

// errorResult converts an operation failure into an MCP error result.
// Taxonomy errors keep their code and execution id; anything else is
// reported as plain text. Tool errors are returned in CallToolResult.IsError,
// never as Go-level handler errors.
func errorResult(err error) *mcp.CallToolResult {
	if qe, ok := query.AsError(err); ok {
		body := errorOutput{
			Code:             string(qe.Code),
			Message:          qe.Message,
			QueryExecutionID: qe.ExecutionID,
		}
		data, merr := json.MarshalIndent(body, "", "  ")
		if merr == nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
				IsError: true,
			}
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}
