package query

import (
	"context"
	"fmt"
	"log/slog"
)

// Decoder fetches and normalizes the result table for an execution already
// in terminal SUCCEEDED state.
type Decoder struct {
	backend Backend
	log     *slog.Logger
}

// NewDecoder creates a Decoder over the given backend.
func NewDecoder(backend Backend, log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.Default()
	}
	return &Decoder{backend: backend, log: log}
}

// Fetch re-verifies the execution status and, if SUCCEEDED, fetches up to
// maxRows raw rows and decodes them into column-name-keyed records.
//
// The status re-check is always a fresh call made directly before the data
// fetch: a different caller may have observed a different state at a
// different time. Result statistics come from this status call; the data
// fetch itself carries none.
func (d *Decoder) Fetch(ctx context.Context, executionID string, maxRows int) (*Result, error) {
	if err := ValidateMaxRows(maxRows); err != nil {
		return nil, err
	}
	if maxRows == 0 {
		maxRows = DefaultMaxRows
	}

	st, err := d.backend.Status(ctx, executionID)
	if err != nil {
		return nil, err
	}

	switch st.State {
	case StateSucceeded:
	case StateRunning, StateQueued:
		return nil, &Error{
			Code:        CodeQueryStillRunning,
			Message:     "query is still running",
			ExecutionID: executionID,
		}
	case StateFailed:
		msg := st.StateChangeReason
		if msg == "" {
			msg = "Query failed"
		}
		return nil, &Error{Code: CodeQueryFailed, Message: msg, ExecutionID: executionID}
	default:
		return nil, &Error{
			Code:        CodeUnexpectedState,
			Message:     fmt.Sprintf("query is in unexpected state %s", st.State),
			ExecutionID: executionID,
		}
	}

	page, err := d.backend.FetchPage(ctx, executionID, maxRows)
	if err != nil {
		return nil, err
	}

	rows := decodeRows(page.Columns, page.Rows)
	d.log.Debug("query results decoded",
		"query_execution_id", executionID, "columns", len(page.Columns), "rows", len(rows))

	return &Result{
		Columns:             page.Columns,
		Rows:                rows,
		ExecutionID:         executionID,
		BytesScanned:        st.Statistics.BytesScanned,
		ExecutionTimeMillis: st.Statistics.ExecutionTimeMillis,
	}, nil
}

// decodeRows builds one record per data row. The backend always returns its
// own header row first; exactly that row is discarded. A missing or nil cell
// stays nil so NULL is distinguishable from an empty string.
func decodeRows(columns []string, raw [][]*string) []map[string]*string {
	if len(raw) <= 1 {
		return []map[string]*string{}
	}

	rows := make([]map[string]*string, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		record := make(map[string]*string, len(columns))
		for i, col := range columns {
			if i < len(cells) {
				record[col] = cells[i]
			} else {
				record[col] = nil
			}
		}
		rows = append(rows, record)
	}
	return rows
}
