package interp

import (
	"testing"

	"github.com/cadence-lang/cadence/internal/pattern"
	"github.com/cadence-lang/cadence/internal/theory"
)

func TestEveryPatternSelectsTransformedOnLastCycleOfBlock(t *testing.T) {
	base, _ := pattern.Parse("C D")
	transformed := base.Rev()
	e := EveryPattern{Interval: 4, Base: base, Transformed: transformed}
	for cycle := 0; cycle < 8; cycle++ {
		got := e.Select(cycle)
		wantTransformed := cycle%4 == 3
		isTransformed := got.Steps[0].Note.PitchClass == transformed.Steps[0].Note.PitchClass
		if isTransformed != wantTransformed {
			t.Fatalf("cycle %d: wantTransformed=%v", cycle, wantTransformed)
		}
	}
}

func TestEveryPatternZeroIntervalAlwaysBase(t *testing.T) {
	base, _ := pattern.Parse("C D")
	e := EveryPattern{Interval: 0, Base: base, Transformed: base.Rev()}
	for cycle := 0; cycle < 5; cycle++ {
		got := e.Select(cycle)
		if got.Steps[0].Note.PitchClass != base.Steps[0].Note.PitchClass {
			t.Fatalf("expected base pattern when interval is 0")
		}
	}
}

func TestResolveToStepEventsForNote(t *testing.T) {
	v := NoteValue(theory.Note{PitchClass: 0, Octave: 4})
	events, err := ResolveToStepEvents(v, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Notes[0].MIDI != 60 {
		t.Fatalf("expected a single MIDI-60 event, got %+v", events)
	}
}

func TestResolveToStepEventsForString(t *testing.T) {
	v := StringValue("C E G")
	events, err := ResolveToStepEvents(v, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected a re-parsed 3-step pattern, got %d events", len(events))
	}
}

func TestResolveToStepEventsRejectsBoolean(t *testing.T) {
	if _, err := ResolveToStepEvents(BooleanValue(true), nil); err == nil {
		t.Fatalf("expected an error for an unplayable value kind")
	}
}
