package services

import (
	"sync"

	"github.com/Riboost-Studio/aep-printer-client/internal/model"
)

// StateChange is a transition of the derived printer state.
type StateChange struct {
	From model.PrinterState
	To   model.PrinterState
}

// StateReducer folds status fragments into a PrinterState. The raw status
// belongs to one connection epoch; updates carrying another epoch are
// rejected.
type StateReducer struct {
	mu       sync.Mutex
	epoch    uint64
	raw      model.RawStatus
	reported model.PrinterState
}

// Reset installs a fresh raw status for epoch. The last reported state is
// kept so an identical state after reconnect is not reported twice.
func (r *StateReducer) Reset(epoch uint64, raw model.RawStatus) (StateChange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch = epoch
	r.raw = raw
	return r.settle()
}

// Apply mutates the raw status of epoch and reports a transition if the
// derived state changed. ok is false for a stale epoch.
func (r *StateReducer) Apply(epoch uint64, update func(*model.RawStatus)) (change StateChange, changed bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch != r.epoch {
		return StateChange{}, false, false
	}
	update(&r.raw)
	change, changed = r.settle()
	return change, changed, true
}

func (r *StateReducer) settle() (StateChange, bool) {
	next := r.raw.Derive()
	if next == r.reported {
		return StateChange{}, false
	}
	change := StateChange{From: r.reported, To: next}
	r.reported = next
	return change, true
}

func (r *StateReducer) State() model.PrinterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reported
}

func (r *StateReducer) Raw() model.RawStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.raw
}
