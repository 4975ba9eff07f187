package model

import "testing"

func TestRawStatusDerive(t *testing.T) {
	cases := []struct {
		raw  RawStatus
		want PrinterState
	}{
		{RawStatus{CurrentState: "ONLINE"}, StateReady},
		{RawStatus{CurrentState: "online", Processing: true}, StatePrinting},
		{RawStatus{CurrentState: "ONLINE", Motion: true}, StatePrinting},
		{RawStatus{CurrentState: "ONLINE", PrintQty: 4}, StatePrinting},
		{RawStatus{CurrentState: "OFFLINE"}, StateBusy},
		{RawStatus{CurrentState: "OFFLINE", PrintQty: 1}, StatePaused},
		{RawStatus{CurrentState: "ERROR", Processing: true, Motion: true, PrintQty: 2}, StateError},
		{RawStatus{CurrentState: "INITIALIZING"}, StateBusy},
		{RawStatus{}, StateBusy},
	}
	for _, tc := range cases {
		if got := tc.raw.Derive(); got != tc.want {
			t.Fatalf("%+v: got %s want %s", tc.raw, got, tc.want)
		}
	}
}

func TestPrinterStateString(t *testing.T) {
	if StateUnknown.String() != "unknown" || StatePaused.String() != "paused" {
		t.Fatalf("unexpected names: %q %q", StateUnknown, StatePaused)
	}
}
