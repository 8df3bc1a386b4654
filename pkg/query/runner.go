package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// defaultPollInterval is the fixed delay between status checks.
	defaultPollInterval = 1 * time.Second

	// defaultMaxAttempts caps the number of status checks regardless of
	// the wall-clock budget.
	defaultMaxAttempts = 100
)

// Runner turns a synchronous-looking "run this query" request into submit
// once, poll until terminal or budget exhausted, then branch on outcome.
type Runner struct {
	backend      Backend
	decoder      *Decoder
	log          *slog.Logger
	pollInterval time.Duration
	maxAttempts  int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithPollInterval overrides the fixed poll interval.
func WithPollInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithMaxAttempts overrides the attempt cap.
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a Runner over the given backend.
func NewRunner(backend Backend, opts ...RunnerOption) *Runner {
	r := &Runner{
		backend:      backend,
		log:          slog.Default(),
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.decoder = NewDecoder(backend, r.log)
	return r
}

// Decoder returns the result decoder sharing this runner's backend.
func (r *Runner) Decoder() *Decoder {
	return r.decoder
}

// Submit validates the input and sends exactly one submission. The
// submission is never retried; a transport failure surfaces directly.
func (r *Runner) Submit(ctx context.Context, in Input) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	id, err := r.backend.Submit(ctx, SubmitInput{Database: in.Database, SQL: in.SQL})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("backend returned no query execution id")
	}

	r.log.Info("query submitted", "query_execution_id", id, "database", in.Database)
	return id, nil
}

// Status fetches the current execution status once.
func (r *Runner) Status(ctx context.Context, executionID string) (*Status, error) {
	return r.backend.Status(ctx, executionID)
}

// Run submits the query and polls until a terminal state is observed or the
// wall-clock budget is exhausted.
//
// On SUCCEEDED it returns the decoded result, bounded by in.MaxRows. On
// budget exhaustion it returns a Pending outcome carrying the execution id;
// the remote execution keeps running and the caller fetches results later.
// On FAILED or CANCELLED it returns a QUERY_FAILED error with the backend's
// reason when available.
func (r *Runner) Run(ctx context.Context, in Input) (*Outcome, error) {
	id, err := r.Submit(ctx, in)
	if err != nil {
		return nil, err
	}

	budget := time.Duration(in.TimeoutMS) * time.Millisecond
	if in.TimeoutMS == 0 {
		budget = DefaultTimeoutMS * time.Millisecond
	}

	st, err := r.WaitForTerminal(ctx, id, budget)
	if err != nil {
		if IsCode(err, CodeTimeout) {
			state := StateUnknown
			if st != nil {
				state = st.State
			}
			r.log.Info("query still running after budget", "query_execution_id", id, "state", state)
			return &Outcome{Pending: &Pending{ExecutionID: id, State: state}}, nil
		}
		return nil, err
	}

	switch st.State {
	case StateSucceeded:
		result, err := r.decoder.Fetch(ctx, id, in.MaxRows)
		if err != nil {
			return nil, err
		}
		return &Outcome{Result: result}, nil
	default:
		return nil, failedError(id, st)
	}
}

// WaitForTerminal polls the backend at the fixed interval until a terminal
// state is observed, the budget elapses, or the attempt cap is hit. On
// timeout it returns the last observed status together with a TIMEOUT error.
// An unrecognized state keeps the loop polling; it never fails on that alone.
func (r *Runner) WaitForTerminal(ctx context.Context, executionID string, budget time.Duration) (*Status, error) {
	deadline := time.Now().Add(budget)

	var last *Status
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		st, err := r.backend.Status(ctx, executionID)
		if err != nil {
			return last, err
		}
		last = st

		if st.State.Terminal() {
			r.log.Debug("query reached terminal state",
				"query_execution_id", executionID, "state", st.State, "attempts", attempt)
			return st, nil
		}

		r.log.Debug("query not yet terminal",
			"query_execution_id", executionID, "state", st.State, "attempt", attempt)

		if !time.Now().Add(r.pollInterval).Before(deadline) {
			break
		}

		timer := time.NewTimer(r.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, fmt.Errorf("waiting for query %s: %w", executionID, ctx.Err())
		case <-timer.C:
		}
	}

	return last, &Error{
		Code:        CodeTimeout,
		Message:     fmt.Sprintf("query did not complete within %s", budget),
		ExecutionID: executionID,
	}
}

// failedError builds the QUERY_FAILED error for a terminal failure state.
func failedError(executionID string, st *Status) error {
	msg := st.StateChangeReason
	if msg == "" {
		msg = "Query failed"
	}
	return &Error{Code: CodeQueryFailed, Message: msg, ExecutionID: executionID}
}
