// Package query implements the Athena query lifecycle: single submission,
// bounded completion polling, and result decoding.
package query

import "fmt"

const (
	// DefaultMaxRows is the default number of result rows fetched per query.
	DefaultMaxRows = 1000

	// MaxRowsLimit is the maximum number of result rows a caller may request.
	MaxRowsLimit = 10000

	// DefaultTimeoutMS is the default wall-clock budget for a run_query call.
	DefaultTimeoutMS = 60000
)

// State is the execution state reported by the backend.
type State string

// Execution states. QUEUED and RUNNING are non-terminal; SUCCEEDED, FAILED,
// and CANCELLED are terminal. UNKNOWN covers states the backend reports that
// this system does not recognize and is treated as non-terminal.
const (
	StateQueued    State = "QUEUED"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
	StateUnknown   State = "UNKNOWN"
)

// Terminal reports whether no further state transitions are expected.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Input describes a query submission. Immutable once submitted.
type Input struct {
	// Database is the target database (schema) for the query.
	Database string `json:"database"`

	// SQL is the query text.
	SQL string `json:"query"`

	// MaxRows bounds the number of result rows fetched on success.
	// Zero means DefaultMaxRows.
	MaxRows int `json:"max_rows,omitempty"`

	// TimeoutMS bounds how long Run waits for a terminal state.
	// Zero means DefaultTimeoutMS.
	TimeoutMS int64 `json:"timeout_ms,omitempty"`
}

// Validate checks the input before any backend call is made.
func (in Input) Validate() error {
	if in.Database == "" {
		return &Error{Code: CodeInvalidRequest, Message: "database is required"}
	}
	if in.SQL == "" {
		return &Error{Code: CodeInvalidRequest, Message: "query is required"}
	}
	if err := ValidateMaxRows(in.MaxRows); err != nil {
		return err
	}
	if in.TimeoutMS < 0 {
		return &Error{Code: CodeInvalidRequest, Message: "timeout_ms must be positive"}
	}
	return nil
}

// ValidateMaxRows checks a row bound. Zero is allowed and means the default.
func ValidateMaxRows(maxRows int) error {
	if maxRows < 0 || maxRows > MaxRowsLimit {
		return &Error{
			Code:    CodeInvalidRequest,
			Message: fmt.Sprintf("max_rows must be between 1 and %d", MaxRowsLimit),
		}
	}
	return nil
}

// Statistics holds execution statistics from a status check.
// Values default to zero when the backend omits them.
type Statistics struct {
	BytesScanned        int64 `json:"bytes_scanned"`
	ExecutionTimeMillis int64 `json:"execution_time_ms"`
}

// Status is a point-in-time view of an execution. It is recomputed on every
// status call and never cached across calls.
type Status struct {
	State             State      `json:"state"`
	StateChangeReason string     `json:"state_change_reason,omitempty"`
	Statistics        Statistics `json:"statistics"`
}

// Result is a decoded result set for a successful execution.
//
// Columns preserves the backend's column order, including duplicate and
// empty names. Each row maps column name to cell value; a nil value is a
// NULL cell, distinct from an empty string.
type Result struct {
	Columns             []string             `json:"columns"`
	Rows                []map[string]*string `json:"rows"`
	ExecutionID         string               `json:"query_execution_id"`
	BytesScanned        int64                `json:"bytes_scanned"`
	ExecutionTimeMillis int64                `json:"execution_time_ms"`
}

// Pending is returned by Run when the poll budget was exhausted before a
// terminal state appeared. The caller retrieves results later via the
// execution id. This is a first-class outcome, not an error.
type Pending struct {
	ExecutionID string `json:"query_execution_id"`
	State       State  `json:"state"`
}

// Outcome is the composite result of Run: exactly one of Result or Pending
// is non-nil.
type Outcome struct {
	Result  *Result
	Pending *Pending
}
