package orchestrator

import "errors"

// ScanState is the orchestrator's per-scan state machine position.
type ScanState string

const (
	StatePending      ScanState = "pending"
	StateDiscovering  ScanState = "discovering"
	StateMetering     ScanState = "metering"
	StatePricing      ScanState = "pricing"
	StateRecommending ScanState = "recommending"
	StateCompleted    ScanState = "completed"
	StateFailed       ScanState = "failed"
)

// ErrScanFailed marks the one condition that fails a whole scan:
// discovery produced zero resources across every requested account.
// Partial failures never surface as errors; they ride in the report.
var ErrScanFailed = errors.New("discovery yielded no resources for any account")

// transitions is the legal edge set. Failed is reachable only out of
// Discovering; every other stage degrades to PartialFailure instead.
var transitions = map[ScanState][]ScanState{
	StatePending:      {StateDiscovering},
	StateDiscovering:  {StateMetering, StateFailed},
	StateMetering:     {StatePricing},
	StatePricing:      {StateRecommending},
	StateRecommending: {StateCompleted},
}

// advance moves the machine to the next state, panicking on an illegal
// edge. Illegal transitions are programming errors, not runtime faults.
func advance(from, to ScanState) ScanState {
	for _, legal := range transitions[from] {
		if legal == to {
			return to
		}
	}
	panic("illegal scan state transition: " + string(from) + " -> " + string(to))
}
