package pattern

import "testing"

func TestFastDividesCycleLength(t *testing.T) {
	p, _ := Parse("C D E F")
	fast := p.Fast(2)
	if !fast.BeatsPerCycle.Equal(NewRational(2, 1)) {
		t.Fatalf("expected cycle halved to 2, got %s", fast.BeatsPerCycle)
	}
}

func TestSlowMultipliesCycleLength(t *testing.T) {
	p, _ := Parse("C D E F")
	slow := p.Slow(2)
	if !slow.BeatsPerCycle.Equal(NewRational(8, 1)) {
		t.Fatalf("expected cycle doubled to 8, got %s", slow.BeatsPerCycle)
	}
}

func TestRevReversesStepOrder(t *testing.T) {
	p, _ := Parse("C D E")
	rev := p.Rev()
	if rev.Steps[0].Note.PitchClass != p.Steps[2].Note.PitchClass {
		t.Fatalf("expected reversed first step to equal original last step")
	}
	if !rev.BeatsPerCycle.Equal(p.BeatsPerCycle) {
		t.Fatalf("expected cycle length preserved by Rev")
	}
}

func TestRotateComposes(t *testing.T) {
	p, _ := Parse("C D E F")
	a, b := 1, 2
	combined := p.Rotate(a).Rotate(b)
	direct := p.Rotate(a + b)
	for i := range combined.Steps {
		if combined.Steps[i].Note.PitchClass != direct.Steps[i].Note.PitchClass {
			t.Fatalf("Rotate(a).Rotate(b) != Rotate(a+b) at index %d", i)
		}
	}
}

func TestTakeClampsToLength(t *testing.T) {
	p, _ := Parse("C D E")
	if got := p.Take(10); len(got.Steps) != 3 {
		t.Fatalf("expected Take to clamp to pattern length, got %d", len(got.Steps))
	}
	if got := p.Take(2); len(got.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(got.Steps))
	}
}

func TestDropSkipsLeadingSteps(t *testing.T) {
	p, _ := Parse("C D E")
	dropped := p.Drop(1)
	if len(dropped.Steps) != 2 {
		t.Fatalf("expected 2 remaining steps, got %d", len(dropped.Steps))
	}
	if dropped.Steps[0].Note.PitchClass != p.Steps[1].Note.PitchClass {
		t.Fatalf("expected Drop(1) to remove the first step")
	}
}

func TestPalindromeDoublesStepsAndCycle(t *testing.T) {
	p, _ := Parse("C D")
	pal := p.Palindrome()
	if len(pal.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(pal.Steps))
	}
	if !pal.BeatsPerCycle.Equal(p.BeatsPerCycle.Mul(RationalFromInt(2))) {
		t.Fatalf("expected doubled cycle length, got %s", pal.BeatsPerCycle)
	}
}

func TestStutterRepeatsEachStep(t *testing.T) {
	p, _ := Parse("C D")
	st := p.Stutter(3)
	events, err := st.ToEvents(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("expected 6 events (2 steps x 3 repeats), got %d", len(events))
	}
}

func TestConcatSumsCycleLengths(t *testing.T) {
	a, _ := Parse("C D")
	b, _ := Parse("E F")
	c := Concat(a, b)
	if len(c.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(c.Steps))
	}
	if !c.BeatsPerCycle.Equal(a.BeatsPerCycle.Add(b.BeatsPerCycle)) {
		t.Fatalf("expected summed cycle length, got %s", c.BeatsPerCycle)
	}
}

func TestStackSingleIsIdentity(t *testing.T) {
	p, _ := Parse("C D")
	if got := Stack([]Pattern{p}); len(got.Steps) != len(p.Steps) {
		t.Fatalf("expected identity for single-pattern stack")
	}
}

func TestStackMergesNotesIntoChord(t *testing.T) {
	a, _ := Parse("C")
	b, _ := Parse("E")
	stacked := Stack([]Pattern{a, b})
	if len(stacked.Steps) != 1 || stacked.Steps[0].Kind != KindChord {
		t.Fatalf("expected a single merged chord step, got %+v", stacked.Steps)
	}
	if len(stacked.Steps[0].Chord.Notes) != 2 {
		t.Fatalf("expected 2 notes in merged chord, got %d", len(stacked.Steps[0].Chord.Notes))
	}
}

func TestStackAllRestProducesRest(t *testing.T) {
	a, _ := Parse("_")
	b, _ := Parse("_")
	stacked := Stack([]Pattern{a, b})
	if stacked.Steps[0].Kind != KindRest {
		t.Fatalf("expected a rest when every layer rests, got %+v", stacked.Steps[0])
	}
}

func TestTransposeShiftsNotes(t *testing.T) {
	p, _ := Parse("C")
	shifted := p.Transpose(12)
	if shifted.Steps[0].Note.Octave != p.Steps[0].Note.Octave+1 {
		t.Fatalf("expected transposition by an octave to bump the octave, got %+v", shifted.Steps[0].Note)
	}
}

func TestResolveVariablesWithSubstitutesAndErrorsOnMissing(t *testing.T) {
	p, _ := Parse("C foo E")
	lookup := func(name string) ([]Step, bool) {
		if name == "foo" {
			q, _ := Parse("G A")
			return q.Steps, true
		}
		return nil, false
	}
	resolved, err := p.ResolveVariablesWith(lookup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolved.Steps) != 4 {
		t.Fatalf("expected foo to expand to 2 steps (total 4), got %d", len(resolved.Steps))
	}

	_, err = p.ResolveVariablesWith(func(string) ([]Step, bool) { return nil, false })
	if err == nil {
		t.Fatalf("expected an undefined-variable error when lookup fails")
	}
}
