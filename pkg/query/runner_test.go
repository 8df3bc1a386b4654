package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRunner builds a runner with a fast poll cadence for scripted tests.
func newTestRunner(backend Backend, opts ...RunnerOption) *Runner {
	base := []RunnerOption{WithPollInterval(time.Millisecond)}
	return NewRunner(backend, append(base, opts...)...)
}

func validInput() Input {
	return Input{Database: "analytics", SQL: "SELECT * FROM events"}
}

func TestRunnerSubmit(t *testing.T) {
	t.Run("relays the backend handle", func(t *testing.T) {
		fake := &fakeBackend{submitID: "exec-1"}
		r := newTestRunner(fake)

		id, err := r.Submit(context.Background(), validInput())
		require.NoError(t, err)
		assert.Equal(t, "exec-1", id)
		assert.Equal(t, 1, fake.submitCalls)
		assert.Equal(t, "analytics", fake.lastSubmit.Database)
		assert.Equal(t, "SELECT * FROM events", fake.lastSubmit.SQL)
	})

	t.Run("rejects missing database before any backend call", func(t *testing.T) {
		fake := &fakeBackend{submitID: "exec-1"}
		r := newTestRunner(fake)

		_, err := r.Submit(context.Background(), Input{SQL: "SELECT 1"})
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidRequest))
		assert.Equal(t, 0, fake.submitCalls)
	})

	t.Run("rejects missing query before any backend call", func(t *testing.T) {
		fake := &fakeBackend{submitID: "exec-1"}
		r := newTestRunner(fake)

		_, err := r.Submit(context.Background(), Input{Database: "analytics"})
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidRequest))
		assert.Equal(t, 0, fake.submitCalls)
	})

	t.Run("empty handle is a backend contract violation", func(t *testing.T) {
		fake := &fakeBackend{submitID: ""}
		r := newTestRunner(fake)

		_, err := r.Submit(context.Background(), validInput())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no query execution id")
	})

	t.Run("submission failure is not retried", func(t *testing.T) {
		fake := &fakeBackend{submitErr: errors.New("connection reset")}
		r := newTestRunner(fake)

		_, err := r.Submit(context.Background(), validInput())
		require.Error(t, err)
		assert.Equal(t, 1, fake.submitCalls)
	})
}

func TestRunnerRun(t *testing.T) {
	t.Run("returns results when query succeeds within budget", func(t *testing.T) {
		fake := &fakeBackend{
			submitID: "exec-1",
			statuses: []*Status{
				{State: StateQueued},
				{State: StateRunning},
				{State: StateSucceeded, Statistics: Statistics{BytesScanned: 2048, ExecutionTimeMillis: 750}},
			},
			page: &Page{
				Columns: []string{"col_a", "col_b"},
				Rows: [][]*string{
					{strPtr("col_a"), strPtr("col_b")},
					{strPtr("1"), strPtr("x")},
					{strPtr("2"), nil},
				},
			},
		}
		r := newTestRunner(fake)

		outcome, err := r.Run(context.Background(), validInput())
		require.NoError(t, err)
		require.NotNil(t, outcome.Result)
		assert.Nil(t, outcome.Pending)

		result := outcome.Result
		assert.Equal(t, "exec-1", result.ExecutionID)
		assert.Equal(t, []string{"col_a", "col_b"}, result.Columns)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, int64(2048), result.BytesScanned)
		assert.Equal(t, int64(750), result.ExecutionTimeMillis)
		assert.Equal(t, 1, fake.submitCalls)
	})

	t.Run("row count stays within max rows", func(t *testing.T) {
		rows := [][]*string{{strPtr("n")}}
		for i := 0; i < 5; i++ {
			rows = append(rows, []*string{strPtr("v")})
		}
		fake := &fakeBackend{
			submitID: "exec-1",
			statuses: scriptedStatuses(StateSucceeded),
			page:     &Page{Columns: []string{"n"}, Rows: rows},
		}
		r := newTestRunner(fake)

		outcome, err := r.Run(context.Background(), Input{Database: "db", SQL: "SELECT n", MaxRows: 6})
		require.NoError(t, err)
		require.NotNil(t, outcome.Result)
		assert.LessOrEqual(t, len(outcome.Result.Rows), 6)
		assert.Equal(t, 6, fake.lastMaxRows)
	})

	t.Run("returns pending when budget elapses before terminal state", func(t *testing.T) {
		fake := &fakeBackend{
			submitID: "exec-2",
			statuses: scriptedStatuses(StateRunning),
		}
		r := newTestRunner(fake, WithPollInterval(5*time.Millisecond))

		outcome, err := r.Run(context.Background(), Input{Database: "db", SQL: "SELECT 1", TimeoutMS: 15})
		require.NoError(t, err, "budget exhaustion is a first-class outcome, not an error")
		require.NotNil(t, outcome.Pending)
		assert.Nil(t, outcome.Result)
		assert.Equal(t, "exec-2", outcome.Pending.ExecutionID)
		assert.Equal(t, StateRunning, outcome.Pending.State)
		assert.Equal(t, 0, fake.fetchCalls, "no result fetch on timeout")
	})

	t.Run("failed query surfaces QUERY_FAILED with backend reason", func(t *testing.T) {
		fake := &fakeBackend{
			submitID: "exec-3",
			statuses: []*Status{
				{State: StateRunning},
				{State: StateFailed, StateChangeReason: "syntax error"},
			},
		}
		r := newTestRunner(fake)

		_, err := r.Run(context.Background(), validInput())
		require.Error(t, err)
		qe, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CodeQueryFailed, qe.Code)
		assert.Equal(t, "syntax error", qe.Message)
		assert.Equal(t, "exec-3", qe.ExecutionID)
	})

	t.Run("failed query without reason uses generic message", func(t *testing.T) {
		fake := &fakeBackend{
			submitID: "exec-3",
			statuses: scriptedStatuses(StateFailed),
		}
		r := newTestRunner(fake)

		_, err := r.Run(context.Background(), validInput())
		qe, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CodeQueryFailed, qe.Code)
		assert.Equal(t, "Query failed", qe.Message)
	})

	t.Run("cancelled query surfaces QUERY_FAILED", func(t *testing.T) {
		fake := &fakeBackend{
			submitID: "exec-4",
			statuses: scriptedStatuses(StateCancelled),
		}
		r := newTestRunner(fake)

		_, err := r.Run(context.Background(), validInput())
		assert.True(t, IsCode(err, CodeQueryFailed))
	})

	t.Run("unknown state keeps polling instead of failing", func(t *testing.T) {
		fake := &fakeBackend{
			submitID: "exec-5",
			statuses: []*Status{
				{State: StateUnknown},
				{State: StateUnknown},
				{State: StateSucceeded},
			},
			page: &Page{Columns: []string{"a"}, Rows: [][]*string{{strPtr("a")}, {strPtr("1")}}},
		}
		r := newTestRunner(fake)

		outcome, err := r.Run(context.Background(), validInput())
		require.NoError(t, err)
		require.NotNil(t, outcome.Result)
		assert.GreaterOrEqual(t, fake.statusCalls, 3)
	})

	t.Run("rejects max_rows above the limit before submitting", func(t *testing.T) {
		fake := &fakeBackend{submitID: "exec-6"}
		r := newTestRunner(fake)

		_, err := r.Run(context.Background(), Input{Database: "db", SQL: "SELECT 1", MaxRows: 10001})
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeInvalidRequest))
		assert.Equal(t, 0, fake.submitCalls)
	})

	t.Run("submission rejection surfaces directly", func(t *testing.T) {
		fake := &fakeBackend{
			submitErr: &Error{Code: CodeInvalidRequest, Message: "line 1:1: mismatched input"},
		}
		r := newTestRunner(fake)

		_, err := r.Run(context.Background(), validInput())
		qe, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidRequest, qe.Code)
		assert.Equal(t, 1, fake.submitCalls)
	})
}

func TestWaitForTerminal(t *testing.T) {
	t.Run("zero budget checks once then times out", func(t *testing.T) {
		fake := &fakeBackend{statuses: scriptedStatuses(StateRunning)}
		r := newTestRunner(fake)

		st, err := r.WaitForTerminal(context.Background(), "exec-1", 0)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeTimeout))
		assert.Equal(t, 1, fake.statusCalls)
		require.NotNil(t, st, "last observed status is returned alongside the timeout")
		assert.Equal(t, StateRunning, st.State)
	})

	t.Run("timeout error carries the execution id", func(t *testing.T) {
		fake := &fakeBackend{statuses: scriptedStatuses(StateQueued)}
		r := newTestRunner(fake)

		_, err := r.WaitForTerminal(context.Background(), "exec-9", 0)
		qe, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CodeTimeout, qe.Code)
		assert.Equal(t, "exec-9", qe.ExecutionID)
	})

	t.Run("attempt cap bounds the loop even with a large budget", func(t *testing.T) {
		fake := &fakeBackend{statuses: scriptedStatuses(StateRunning)}
		r := newTestRunner(fake, WithMaxAttempts(3))

		_, err := r.WaitForTerminal(context.Background(), "exec-1", time.Hour)
		require.Error(t, err)
		assert.True(t, IsCode(err, CodeTimeout))
		assert.Equal(t, 3, fake.statusCalls)
	})

	t.Run("terminal state exits immediately", func(t *testing.T) {
		fake := &fakeBackend{statuses: scriptedStatuses(StateSucceeded)}
		r := newTestRunner(fake)

		st, err := r.WaitForTerminal(context.Background(), "exec-1", time.Second)
		require.NoError(t, err)
		assert.Equal(t, StateSucceeded, st.State)
		assert.Equal(t, 1, fake.statusCalls)
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		fake := &fakeBackend{statuses: scriptedStatuses(StateRunning)}
		r := newTestRunner(fake, WithPollInterval(50*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		_, err := r.WaitForTerminal(ctx, "exec-1", time.Minute)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("status error propagates", func(t *testing.T) {
		fake := &fakeBackend{statusErr: errors.New("throttled")}
		r := newTestRunner(fake)

		_, err := r.WaitForTerminal(context.Background(), "exec-1", time.Second)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "throttled")
	})
}
