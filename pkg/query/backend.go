package query

import "context"

// SubmitInput carries the per-call fields of a submission. The result
// storage destination is fixed backend configuration, not a per-call value.
type SubmitInput struct {
	Database string
	SQL      string
}

// Page is one bounded fetch of raw result rows. The backend's header row is
// still present as the first row; the Decoder discards it. A nil cell is a
// NULL value.
type Page struct {
	Columns []string
	Rows    [][]*string
}

// Backend abstracts the remote query service. Athena implements this; tests
// swap in a deterministic fake to script exact state sequences.
type Backend interface {
	// Submit sends exactly one submission and returns the backend-assigned
	// execution id.
	Submit(ctx context.Context, in SubmitInput) (string, error)

	// Status fetches the current execution state. Never cached.
	Status(ctx context.Context, executionID string) (*Status, error)

	// FetchPage fetches up to maxRows raw result rows, header row included.
	FetchPage(ctx context.Context, executionID string, maxRows int) (*Page, error)
}
