package scanning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lazyvibe/codescan/internal/model"
)

const activateURL = "https://example.com/activate"

func qrOnly() model.SymbologySet {
	return model.NewSymbologySet(model.SymbologyQR)
}

func event(dets ...model.Detection) model.DetectionEvent {
	return model.DetectionEvent{Detections: dets}
}

func qr(payload string) model.Detection {
	return model.Detection{Symbology: model.SymbologyQR, Payload: payload}
}

func TestTransition_Scenarios(t *testing.T) {
	valid := MatchExact(activateURL)

	tests := []struct {
		name  string
		event model.DetectionEvent
		want  Result
	}{
		{
			name:  "empty detection list is a heartbeat",
			event: event(),
			want:  Result{Next: model.Scanning()},
		},
		{
			name:  "valid payload is scanned",
			event: event(qr(activateURL)),
			want:  Result{Next: model.ScannedCode(activateURL), StopSession: true, FireSuccess: true},
		},
		{
			name:  "invalid payload is unknown",
			event: event(qr("garbage")),
			want:  Result{Next: model.UnknownCode()},
		},
		{
			name:  "unmatched symbology is noise",
			event: event(model.Detection{Symbology: model.SymbologyEAN13, Payload: activateURL}),
			want:  Result{Next: model.Scanning()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(model.Scanning(), tt.event, qrOnly(), valid)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransition_FromUndetermined(t *testing.T) {
	got := Transition(model.Undetermined(), event(qr(activateURL)), qrOnly(), AcceptAll)
	assert.Equal(t, model.ScannedCode(activateURL), got.Next)
	assert.True(t, got.StopSession)
	assert.True(t, got.FireSuccess)
}

func TestTransition_FirstDetectionWins(t *testing.T) {
	valid := MatchExact(activateURL)

	t.Run("earlier invalid detection decides the frame", func(t *testing.T) {
		got := Transition(model.Scanning(), event(qr("garbage"), qr(activateURL)), qrOnly(), valid)
		assert.Equal(t, Result{Next: model.UnknownCode()}, got)
	})

	t.Run("later valid detections are ignored after a match", func(t *testing.T) {
		got := Transition(model.Scanning(), event(qr(activateURL), qr("https://example.com/other")), qrOnly(), AcceptAll)
		assert.Equal(t, model.ScannedCode(activateURL), got.Next)
	})

	t.Run("unmatched symbologies before the first match are skipped", func(t *testing.T) {
		ev := event(
			model.Detection{Symbology: model.SymbologyCode128, Payload: "garbage"},
			qr(activateURL),
		)
		got := Transition(model.Scanning(), ev, qrOnly(), valid)
		assert.Equal(t, model.ScannedCode(activateURL), got.Next)
	})
}

func TestTransition_TerminalStatesAbsorbEverything(t *testing.T) {
	events := []model.DetectionEvent{
		event(),
		event(qr(activateURL)),
		event(qr("garbage")),
		event(qr(activateURL), qr(activateURL)),
	}
	terminals := []model.ScanningState{
		model.ScannedCode(activateURL),
		model.ErrorState("no camera device"),
	}

	for _, current := range terminals {
		for _, ev := range events {
			got := Transition(current, ev, qrOnly(), AcceptAll)
			assert.Equal(t, Result{Next: current}, got, "state %s", current)
		}
	}
}

func TestTransition_EmptyEventsNeverStop(t *testing.T) {
	state := model.Undetermined()
	for i := 0; i < 10; i++ {
		res := Transition(state, event(), qrOnly(), AcceptAll)
		assert.Equal(t, model.Scanning(), res.Next)
		assert.False(t, res.StopSession)
		assert.False(t, res.FireSuccess)
		state = res.Next
	}
}

func TestTransition_NilPredicateRejects(t *testing.T) {
	got := Transition(model.Scanning(), event(qr(activateURL)), qrOnly(), nil)
	assert.Equal(t, Result{Next: model.UnknownCode()}, got)
}

func TestMachine_UnknownThenValid(t *testing.T) {
	m := NewMachine(qrOnly(), MatchExact(activateURL))

	res := m.Apply(event(qr("garbage")))
	assert.Equal(t, model.UnknownCode(), res.Next)
	assert.False(t, res.StopSession)

	res = m.Apply(event(qr(activateURL)))
	assert.Equal(t, model.ScannedCode(activateURL), res.Next)
	assert.True(t, res.FireSuccess)
	assert.Equal(t, model.ScannedCode(activateURL), m.State())
}

func TestMachine_SecondValidEventIsNoop(t *testing.T) {
	m := NewMachine(qrOnly(), MatchExact(activateURL))

	first := m.Apply(event(qr(activateURL)))
	second := m.Apply(event(qr(activateURL)))

	assert.True(t, first.FireSuccess)
	assert.Equal(t, Result{Next: model.ScannedCode(activateURL)}, second)
}

func TestMachine_Fail(t *testing.T) {
	t.Run("from undetermined", func(t *testing.T) {
		m := NewMachine(qrOnly(), AcceptAll)
		assert.Equal(t, model.ErrorState("no camera device"), m.Fail("no camera device"))
		assert.True(t, m.State().IsTerminal())
	})

	t.Run("ignored once scanning", func(t *testing.T) {
		m := NewMachine(qrOnly(), AcceptAll)
		m.Apply(event())
		assert.Equal(t, model.Scanning(), m.Fail("late failure"))
	})
}
