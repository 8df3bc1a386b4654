package query

import "errors"

// Code classifies a query operation failure.
type Code string

// The fixed error taxonomy. Every failure surfaced by this package carries
// exactly one of these codes.
const (
	// CodeInvalidRequest means the query was rejected before or at
	// submission (validation failure or backend syntax/semantic error).
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// CodeQueryNotFound means the backend does not recognize the
	// execution id.
	CodeQueryNotFound Code = "QUERY_NOT_FOUND"

	// CodeQueryStillRunning means a result fetch was attempted while the
	// execution is non-terminal.
	CodeQueryStillRunning Code = "QUERY_STILL_RUNNING"

	// CodeQueryFailed means the execution reached a terminal failure state.
	CodeQueryFailed Code = "QUERY_FAILED"

	// CodeUnexpectedState means the execution is terminal but neither
	// succeeded nor a recognized failure (e.g. cancelled).
	CodeUnexpectedState Code = "UNEXPECTED_STATE"

	// CodeTimeout means the poll budget was exhausted before a terminal
	// state appeared. Run converts this to a Pending outcome; the raw poll
	// primitive surfaces it directly.
	CodeTimeout Code = "TIMEOUT"
)

// Error is a tagged query operation failure.
type Error struct {
	Code        Code
	Message     string
	ExecutionID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ExecutionID != "" {
		return string(e.Code) + ": " + e.Message + " (query execution " + e.ExecutionID + ")"
	}
	return string(e.Code) + ": " + e.Message
}

// AsError extracts a taxonomy error from an error chain.
func AsError(err error) (*Error, bool) {
	var qe *Error
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	qe, ok := AsError(err)
	return ok && qe.Code == code
}
