package query

import (
	"context"
	"sync"
)

// fakeBackend is a scripted Backend for tests. Statuses are consumed in
// order; the last one repeats once the script is exhausted.
type fakeBackend struct {
	mu sync.Mutex

	submitID  string
	submitErr error

	statuses  []*Status
	statusErr error

	page    *Page
	pageErr error

	submitCalls int
	statusCalls int
	fetchCalls  int
	lastMaxRows int
	lastSubmit  SubmitInput
}

func (f *fakeBackend) Submit(_ context.Context, in SubmitInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	f.lastSubmit = in
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.submitID, nil
}

func (f *fakeBackend) Status(_ context.Context, _ string) (*Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if len(f.statuses) == 0 {
		return &Status{State: StateUnknown}, nil
	}
	st := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return st, nil
}

func (f *fakeBackend) FetchPage(_ context.Context, _ string, maxRows int) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	f.lastMaxRows = maxRows
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	if f.page == nil {
		return &Page{Columns: []string{}, Rows: [][]*string{}}, nil
	}
	return f.page, nil
}

// strPtr returns a pointer to s.
func strPtr(s string) *string {
	return &s
}

// scriptedStatuses builds a status sequence from bare states.
func scriptedStatuses(states ...State) []*Status {
	statuses := make([]*Status, 0, len(states))
	for _, s := range states {
		statuses = append(statuses, &Status{State: s})
	}
	return statuses
}
