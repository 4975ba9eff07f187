package services

import (
	"sync"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

// BatchCallbacks are the hooks for one print batch. Any of them may be nil.
type BatchCallbacks struct {
	// LabelCount receives the number of labels left after each label.
	LabelCount func(remaining int)
	Done       func()
	Error      func(rec model.ErrorRecord)
}

// BatchJob is the batch currently tracked.
type BatchJob struct {
	BatchCallbacks
}

// BatchTracker holds at most one active BatchJob. A new batch replaces the
// previous one; batches are not queued.
type BatchTracker struct {
	mu  sync.Mutex
	job *BatchJob
}

func (t *BatchTracker) Begin(cb BatchCallbacks) *BatchJob {
	job := &BatchJob{BatchCallbacks: cb}
	t.mu.Lock()
	t.job = job
	t.mu.Unlock()
	return job
}

// Current returns the active job or nil.
func (t *BatchTracker) Current() *BatchJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job
}

func (t *BatchTracker) Active() bool {
	return t.Current() != nil
}

// End clears the active job and returns it. Only the first End after a
// Begin returns a job.
func (t *BatchTracker) End() (*BatchJob, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job := t.job
	t.job = nil
	return job, job != nil
}
