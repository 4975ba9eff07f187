package model

import "strings"

// PrinterState is the lifecycle state derived from RawStatus.
type PrinterState string

const (
	StateUnknown  PrinterState = ""
	StateReady    PrinterState = "ready"
	StatePrinting PrinterState = "printing"
	StatePaused   PrinterState = "paused"
	StateBusy     PrinterState = "busy"
	StateError    PrinterState = "error"
)

func (s PrinterState) String() string {
	if s == StateUnknown {
		return "unknown"
	}
	return string(s)
}

// Raw transport-level states reported in RawStatus.CurrentState.
const (
	RawStateOnline  = "ONLINE"
	RawStateOffline = "OFFLINE"
	RawStateError   = "ERROR"
)

// RawStatus aggregates the partial status signals pushed by the printer.
type RawStatus struct {
	CurrentState string `json:"currentState"`
	Processing   bool   `json:"processing"`
	Motion       bool   `json:"motion"`
	PrintQty     int    `json:"printQty"`
}

func (r RawStatus) Active() bool {
	return r.Processing || r.Motion || r.PrintQty > 0
}

// Derive folds the raw status into a PrinterState. An error state always
// wins over activity flags.
func (r RawStatus) Derive() PrinterState {
	switch {
	case strings.EqualFold(r.CurrentState, RawStateError):
		return StateError
	case strings.EqualFold(r.CurrentState, RawStateOnline):
		if r.Active() {
			return StatePrinting
		}
		return StateReady
	case strings.EqualFold(r.CurrentState, RawStateOffline):
		if r.Active() {
			return StatePaused
		}
		return StateBusy
	default:
		return StateBusy
	}
}
