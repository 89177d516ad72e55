// Package scanning turns detection events into the authoritative scanning state.
package scanning

import (
	"sync"

	"github.com/lazyvibe/codescan/internal/model"
)

// Result is the outcome of applying one detection event.
type Result struct {
	Next        model.ScanningState
	StopSession bool
	FireSuccess bool
}

// Transition is the pure scanning transition function.
//
//   - Terminal states (ScannedCode, Error) absorb every event unchanged.
//   - An event without detections yields Scanning.
//   - Otherwise the first detection whose symbology is in filter decides the
//     frame: ScannedCode (stop, fire) if valid accepts its payload, else
//     UnknownCode. Later detections in the same event are never consulted.
//   - If no detection matches filter, the frame is noise and yields Scanning.
//
// A nil predicate accepts nothing.
func Transition(current model.ScanningState, event model.DetectionEvent, filter model.SymbologySet, valid model.ValidityPredicate) Result {
	if current.IsTerminal() {
		return Result{Next: current}
	}
	if len(event.Detections) == 0 {
		return Result{Next: model.Scanning()}
	}

	for _, d := range event.Detections {
		if !filter.Contains(d.Symbology) {
			continue
		}
		if valid != nil && valid(d.Payload) {
			return Result{
				Next:        model.ScannedCode(d.Payload),
				StopSession: true,
				FireSuccess: true,
			}
		}
		return Result{Next: model.UnknownCode()}
	}

	return Result{Next: model.Scanning()}
}

// Machine holds the current state and applies Transition to it.
type Machine struct {
	mu     sync.Mutex
	state  model.ScanningState
	filter model.SymbologySet
	valid  model.ValidityPredicate
}

// NewMachine creates a machine in the Undetermined state.
func NewMachine(filter model.SymbologySet, valid model.ValidityPredicate) *Machine {
	return &Machine{
		state:  model.Undetermined(),
		filter: filter,
		valid:  valid,
	}
}

// State returns the current state.
func (m *Machine) State() model.ScanningState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Apply feeds one event through Transition and records the next state.
func (m *Machine) Apply(event model.DetectionEvent) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := Transition(m.state, event, m.filter, m.valid)
	m.state = res.Next
	return res
}

// Fail moves an Undetermined machine to Error. This is the setup-failure
// path and bypasses Transition. Any other state is returned unchanged.
func (m *Machine) Fail(message string) model.ScanningState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Kind == model.StateUndetermined {
		m.state = model.ErrorState(message)
	}
	return m.state
}
