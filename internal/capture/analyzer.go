package capture

import "github.com/lazyvibe/codescan/internal/model"

// Analyzer inspects a frame and reports the codes it contains.
type Analyzer interface {
	Analyze(frame model.Frame) model.DetectionEvent
}

// FilterAnalyzer passes through the symbols reported for a frame, keeping
// only the configured symbologies in their original order.
type FilterAnalyzer struct {
	types model.SymbologySet
}

// NewFilterAnalyzer creates an analyzer for the given symbologies.
func NewFilterAnalyzer(types model.SymbologySet) *FilterAnalyzer {
	return &FilterAnalyzer{types: types}
}

// Analyze returns the frame's matching detections.
func (a *FilterAnalyzer) Analyze(frame model.Frame) model.DetectionEvent {
	ev := model.DetectionEvent{Frame: frame.Seq}
	for _, sym := range frame.Symbols {
		if a.types.Contains(sym.Symbology) {
			ev.Detections = append(ev.Detections, sym)
		}
	}
	return ev
}
