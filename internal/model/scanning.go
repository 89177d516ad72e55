package model

import (
	"fmt"
	"time"
)

// ScanningStateKind enumerates the scanning states.
type ScanningStateKind int

const (
	// StateUndetermined is the initial state before the session starts.
	StateUndetermined ScanningStateKind = iota
	// StateScanning means the session is running and nothing matched this frame.
	StateScanning
	// StateScannedCode means a valid code was found. Terminal.
	StateScannedCode
	// StateUnknownCode means a code was found but failed validation.
	StateUnknownCode
	// StateError means the session could not start. Terminal.
	StateError
)

// String returns the wire name of the kind.
func (k ScanningStateKind) String() string {
	switch k {
	case StateUndetermined:
		return "undetermined"
	case StateScanning:
		return "scanning"
	case StateScannedCode:
		return "scanned_code"
	case StateUnknownCode:
		return "unknown_code"
	case StateError:
		return "error"
	default:
		return "undetermined"
	}
}

// ScanningState is the authoritative status rendered by the host.
// Payload is set only for StateScannedCode and Message only for StateError.
// The zero value is Undetermined.
type ScanningState struct {
	Kind    ScanningStateKind
	Payload string
	Message string
}

// Undetermined returns the initial state.
func Undetermined() ScanningState { return ScanningState{Kind: StateUndetermined} }

// Scanning returns the heartbeat state.
func Scanning() ScanningState { return ScanningState{Kind: StateScanning} }

// ScannedCode returns the success state for payload.
func ScannedCode(payload string) ScanningState {
	return ScanningState{Kind: StateScannedCode, Payload: payload}
}

// UnknownCode returns the state for a code that failed validation.
func UnknownCode() ScanningState { return ScanningState{Kind: StateUnknownCode} }

// ErrorState returns the terminal setup-failure state.
func ErrorState(message string) ScanningState {
	return ScanningState{Kind: StateError, Message: message}
}

// IsTerminal reports whether no further automatic transition may occur.
func (s ScanningState) IsTerminal() bool {
	return s.Kind == StateScannedCode || s.Kind == StateError
}

func (s ScanningState) String() string {
	switch s.Kind {
	case StateScannedCode:
		return fmt.Sprintf("%s(%q)", s.Kind, s.Payload)
	case StateError:
		return fmt.Sprintf("%s(%q)", s.Kind, s.Message)
	default:
		return s.Kind.String()
	}
}

// Detection is a single code reported by the frame analyzer.
type Detection struct {
	Symbology Symbology `json:"symbology"`
	Payload   string    `json:"payload"`
}

// DetectionEvent carries the detections of one analyzed frame, in delivery
// order. It may be empty.
type DetectionEvent struct {
	Frame      uint64
	Detections []Detection
}

// Frame is one unit of input produced by a capture device. Symbols are what
// the upstream recognizer reported before any filtering.
type Frame struct {
	Seq      uint64
	Captured time.Time
	Symbols  []Detection
}

// ValidityPredicate decides whether a payload is acceptable. It must be pure.
type ValidityPredicate func(payload string) bool
