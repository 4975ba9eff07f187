package services

import "testing"

func TestBatchTrackerEndIsIdempotent(t *testing.T) {
	var tr BatchTracker
	if tr.Active() {
		t.Fatalf("new tracker is active")
	}
	tr.Begin(BatchCallbacks{Done: func() {}})
	if !tr.Active() {
		t.Fatalf("expected active batch")
	}
	job, ok := tr.End()
	if !ok || job == nil || job.Done == nil {
		t.Fatalf("expected ended job, got %+v ok=%v", job, ok)
	}
	if _, ok := tr.End(); ok {
		t.Fatalf("second End returned a job")
	}
	if tr.Current() != nil {
		t.Fatalf("expected no current job")
	}
}

func TestBatchTrackerBeginReplaces(t *testing.T) {
	var tr BatchTracker
	calls := ""
	tr.Begin(BatchCallbacks{Done: func() { calls += "first" }})
	tr.Begin(BatchCallbacks{Done: func() { calls += "second" }})
	job, ok := tr.End()
	if !ok {
		t.Fatalf("expected job")
	}
	job.Done()
	if calls != "second" {
		t.Fatalf("expected last batch to win, got %q", calls)
	}
}
