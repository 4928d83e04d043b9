package pattern

import "testing"

func TestParseRestsS1(t *testing.T) {
	p, err := Parse("C _ E _")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i, want := range []bool{false, true, false, true} {
		if events[i].IsRest != want {
			t.Fatalf("event %d: expected IsRest=%v, got %v", i, want, events[i].IsRest)
		}
	}
	for _, e := range events {
		if !e.Duration.Equal(RationalFromInt(1)) {
			t.Fatalf("expected duration 1 beat, got %s", e.Duration)
		}
	}
}

func TestParseGroupNesting(t *testing.T) {
	p, err := Parse("C [E G]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events (C, E, G), got %d", len(events))
	}
	if !events[0].Duration.Equal(NewRational(2, 1)) {
		t.Fatalf("expected C to take half the cycle (2 beats), got %s", events[0].Duration)
	}
	if !events[1].Duration.Equal(NewRational(1, 1)) || !events[2].Duration.Equal(NewRational(1, 1)) {
		t.Fatalf("expected E and G to split the other half, got %s %s", events[1].Duration, events[2].Duration)
	}
}

func TestParseChordLiteral(t *testing.T) {
	p, err := Parse("[C,E,G]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Steps) != 1 || p.Steps[0].Kind != KindChord {
		t.Fatalf("expected a single chord step, got %+v", p.Steps)
	}
	if len(p.Steps[0].Chord.Notes) != 3 {
		t.Fatalf("expected 3-note chord, got %d", len(p.Steps[0].Chord.Notes))
	}
}

func TestParseAlternationSelectsPerCycle(t *testing.T) {
	p, err := Parse("<C E G>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for cycle, want := range []int{60, 64, 67} {
		c := cycle
		events, err := p.ToEvents(&c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		if len(events[0].Notes) != 1 || events[0].Notes[0].MIDI != want {
			t.Fatalf("cycle %d: expected MIDI %d, got %+v", cycle, want, events[0].Notes)
		}
	}
}

func TestParseEuclideanRhythm(t *testing.T) {
	p, err := Parse("bd(3,8)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 8 {
		t.Fatalf("expected 8 events, got %d", len(events))
	}
	hits := 0
	for _, e := range events {
		if !e.IsRest {
			hits++
		}
	}
	if hits != 3 {
		t.Fatalf("expected 3 hits, got %d", hits)
	}
}

func TestParseRepeatModifier(t *testing.T) {
	p, err := Parse("C*3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 repeated events, got %d", len(events))
	}
}

func TestParseWeightedModifier(t *testing.T) {
	p, err := Parse("C@3 E")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Duration.Equal(NewRational(3, 1)) {
		t.Fatalf("expected weighted event to take 3 beats, got %s", events[0].Duration)
	}
}

func TestParseVelocityModifier(t *testing.T) {
	p, err := Parse("C(80)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Notes[0].Velocity != 80 {
		t.Fatalf("expected velocity 80, got %+v", events)
	}
}

func TestParsePolyrhythm(t *testing.T) {
	p, err := Parse("{C E G, A B}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 merged events across both polyrhythm groups, got %d", len(events))
	}
}

func TestParseBareVariableRejected(t *testing.T) {
	if _, err := Parse("foo"); err == nil {
		t.Fatalf("expected error for a bare unresolved variable")
	}
}

func TestParseUnresolvedVariableIsResolutionErrorAtPlayback(t *testing.T) {
	p, err := Parse("C foo E")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err == nil {
		t.Fatalf("expected a resolution error for the unresolved variable")
	}
	// The error does not prevent the resolvable events from being produced.
	if len(events) != 2 {
		t.Fatalf("expected the 2 resolvable events despite the error, got %d", len(events))
	}
}

func TestTotalDurationEqualsCycleLengthP1(t *testing.T) {
	p, err := Parse("C D E F G")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := Zero
	for _, e := range events {
		total = total.Add(e.Duration)
	}
	if !total.Equal(p.BeatsPerCycle) {
		t.Fatalf("expected total duration %s to equal beats per cycle %s", total, p.BeatsPerCycle)
	}
}

func TestEventsSortedByStartBeatP2(t *testing.T) {
	p, err := Parse("C D E F")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events, err := p.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(events); i++ {
		if events[i].StartBeat.Cmp(events[i-1].StartBeat) < 0 {
			t.Fatalf("events not sorted: %s before %s", events[i-1].StartBeat, events[i].StartBeat)
		}
		if events[i].StartBeat.Equal(events[i-1].StartBeat) {
			t.Fatalf("two events share a start beat after merging: index %d", i)
		}
	}
}
