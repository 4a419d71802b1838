package provider

import "sync"

type ItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult accumulates the outcome of best-effort loops over provider
// calls. Safe for concurrent use; cascade operations fan out cancellations.
type BatchResult struct {
	mu        sync.Mutex
	Succeeded []string    `json:"succeeded"`
	Failed    []ItemError `json:"failed"`
}

func (r *BatchResult) AddSuccess(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Succeeded = append(r.Succeeded, id)
}

func (r *BatchResult) AddFailure(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failed = append(r.Failed, ItemError{ID: id, Error: err.Error()})
}

func (r *BatchResult) SuccessCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Succeeded)
}

func (r *BatchResult) FailureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Failed)
}

func (r *BatchResult) Errors() []ItemError {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ItemError, len(r.Failed))
	copy(out, r.Failed)
	return out
}
