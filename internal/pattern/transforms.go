package pattern

import "github.com/cadence-lang/cadence/internal/theory"

// Fast divides the pattern's cycle length by k (notes play faster).
func (p Pattern) Fast(k int64) Pattern {
	out := p
	out.BeatsPerCycle = p.BeatsPerCycle.Div(RationalFromInt(k))
	return out
}

// Slow multiplies the pattern's cycle length by k (notes play slower).
func (p Pattern) Slow(k int64) Pattern {
	out := p
	out.BeatsPerCycle = p.BeatsPerCycle.Mul(RationalFromInt(k))
	return out
}

// Rev reverses step order, preserving cycle length.
func (p Pattern) Rev() Pattern {
	out := p
	out.Steps = make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		out.Steps[len(p.Steps)-1-i] = s
	}
	return out
}

// Rotate rotates steps by n positions (positive = right), preserving cycle
// length. Rotate(a).Rotate(b) == Rotate(a+b) modulo pattern length.
func (p Pattern) Rotate(n int) Pattern {
	length := len(p.Steps)
	if length == 0 {
		return p
	}
	n = ((n % length) + length) % length
	out := p
	out.Steps = make([]Step, length)
	for i := 0; i < length; i++ {
		// positive n = right rotation: element at i comes from i-n.
		src := ((i-n)%length + length) % length
		out.Steps[i] = p.Steps[src]
	}
	return out
}

// Take keeps the first n steps (or all of them if n exceeds the length).
func (p Pattern) Take(n int) Pattern {
	out := p
	if n > len(p.Steps) {
		n = len(p.Steps)
	}
	if n < 0 {
		n = 0
	}
	out.Steps = append([]Step{}, p.Steps[:n]...)
	return out
}

// Drop skips the first n steps.
func (p Pattern) Drop(n int) Pattern {
	out := p
	if n > len(p.Steps) {
		n = len(p.Steps)
	}
	if n < 0 {
		n = 0
	}
	out.Steps = append([]Step{}, p.Steps[n:]...)
	return out
}

// Palindrome appends the reverse of the pattern and doubles the cycle
// length.
func (p Pattern) Palindrome() Pattern {
	reversed := p.Rev()
	out := p
	out.Steps = append(append([]Step{}, p.Steps...), reversed.Steps...)
	out.BeatsPerCycle = p.BeatsPerCycle.Mul(RationalFromInt(2))
	return out
}

// Stutter multiplies each step in place, wrapping each (unwrapping any
// Weighted annotation first, then re-applying it) in a Repeat(n).
func (p Pattern) Stutter(n int) Pattern {
	out := p
	out.Steps = make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		out.Steps[i] = stutterStep(s, n)
	}
	return out
}

func stutterStep(s Step, n int) Step {
	if s.Kind == KindWeighted {
		return NewWeightedStep(NewRepeatStep(*s.Child, n), s.Weight)
	}
	return NewRepeatStep(s, n)
}

// Concat appends steps and sums cycle lengths.
func Concat(patterns ...Pattern) Pattern {
	if len(patterns) == 0 {
		return Pattern{}
	}
	var steps []Step
	cycle := Zero
	for _, p := range patterns {
		steps = append(steps, p.Steps...)
		cycle = cycle.Add(p.BeatsPerCycle)
	}
	return Pattern{Steps: steps, BeatsPerCycle: cycle}
}

// Stack zips pattern steps by index with wrap-around, merging each index's
// notes into one step: a single note becomes Note, multiple become Chord,
// all-rest becomes Rest. Stack of a single pattern is the identity.
func Stack(patterns []Pattern) Pattern {
	if len(patterns) == 0 {
		return Pattern{}
	}
	if len(patterns) == 1 {
		return patterns[0]
	}
	maxLen := 0
	for _, p := range patterns {
		if len(p.Steps) > maxLen {
			maxLen = len(p.Steps)
		}
	}
	steps := make([]Step, maxLen)
	for i := 0; i < maxLen; i++ {
		var notes []theory.Note
		var others []Step
		allRest := true
		for _, p := range patterns {
			if len(p.Steps) == 0 {
				continue
			}
			s := p.Steps[i%len(p.Steps)]
			switch s.Kind {
			case KindRest:
				// contributes nothing; doesn't break all-rest.
			case KindNote:
				notes = append(notes, s.Note)
				allRest = false
			case KindChord:
				notes = append(notes, s.Chord.Notes...)
				allRest = false
			default:
				others = append(others, s)
				allRest = false
			}
		}
		steps[i] = mergeStackedStep(notes, others, allRest)
	}
	return Pattern{Steps: steps, BeatsPerCycle: patterns[0].BeatsPerCycle}
}

func mergeStackedStep(notes []theory.Note, others []Step, allRest bool) Step {
	var leaf *Step
	switch len(notes) {
	case 0:
		// no leaf contribution
	case 1:
		s := NewNoteStep(notes[0])
		leaf = &s
	default:
		s := NewChordStep(theory.NewChordFromNotes(notes))
		leaf = &s
	}
	switch {
	case len(others) > 0:
		combined := append([]Step{}, others...)
		if leaf != nil {
			combined = append([]Step{*leaf}, combined...)
		}
		return NewGroupStep(combined)
	case allRest:
		return NewRestStep()
	case leaf != nil:
		return *leaf
	default:
		return NewRestStep()
	}
}

// Transpose shifts every contained note/chord by the given number of
// semitones, recursing through all step variants.
func (p Pattern) Transpose(semitones int) Pattern {
	out := p
	out.Steps = mapLeaves(p.Steps, func(s Step) Step {
		switch s.Kind {
		case KindNote:
			return NewNoteStep(s.Note.Add(semitones))
		case KindChord:
			shifted := make([]theory.Note, len(s.Chord.InputOrder))
			for i, n := range s.Chord.InputOrder {
				shifted[i] = n.Add(semitones)
			}
			return NewChordStep(theory.NewChordFromNotes(shifted))
		default:
			return s
		}
	})
	return out
}

// MapChords lifts a chord-transforming function across Chord and Note
// steps. Notes are treated as single-note chords; a one-note result
// collapses back to a Note step.
func (p Pattern) MapChords(f func(theory.Chord) theory.Chord) Pattern {
	out := p
	out.Steps = mapLeaves(p.Steps, func(s Step) Step {
		switch s.Kind {
		case KindNote:
			c := f(theory.NewChordFromNotes([]theory.Note{s.Note}))
			if len(c.Notes) == 1 {
				return NewNoteStep(c.Notes[0])
			}
			return NewChordStep(c)
		case KindChord:
			c := f(s.Chord)
			if len(c.Notes) == 1 {
				return NewNoteStep(c.Notes[0])
			}
			return NewChordStep(c)
		default:
			return s
		}
	})
	return out
}

// mapLeaves applies fn to every Note/Chord/Rest/Drum leaf in a step tree,
// recursing through Group/Repeat/Alternation/Weighted/Euclidean/Polyrhythm/
// Velocity wrappers and rebuilding them around the mapped leaves.
func mapLeaves(steps []Step, fn func(Step) Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = mapLeaf(s, fn)
	}
	return out
}

func mapLeaf(s Step, fn func(Step) Step) Step {
	switch s.Kind {
	case KindNote, KindChord, KindRest, KindDrum:
		return fn(s)
	case KindGroup:
		s.Children = mapLeaves(s.Children, fn)
		return s
	case KindAlternation:
		s.Children = mapLeaves(s.Children, fn)
		return s
	case KindRepeat, KindWeighted, KindEuclidean, KindVelocity:
		child := mapLeaf(*s.Child, fn)
		s.Child = &child
		return s
	case KindPolyrhythm:
		groups := make([][]Step, len(s.Groups))
		for i, g := range s.Groups {
			groups[i] = mapLeaves(g, fn)
		}
		s.Groups = groups
		return s
	case KindVariable:
		return s
	default:
		return s
	}
}

// ResolveVariablesWith replaces every Variable(name) with the sequence
// returned by lookup(name). Single-step resolutions preserve the enclosing
// Repeat/Weighted wrapper; inside such a wrapper a multi-step resolution
// collapses into a Group, while at the top level or inside a group its steps
// are spliced in place. A missing binding fails with "undefined variable".
func (p Pattern) ResolveVariablesWith(lookup func(name string) ([]Step, bool)) (Pattern, error) {
	out := p
	steps, err := resolveSteps(p.Steps, lookup)
	if err != nil {
		return Pattern{}, err
	}
	out.Steps = steps
	return out, nil
}

func resolveSteps(steps []Step, lookup func(string) ([]Step, bool)) ([]Step, error) {
	var out []Step
	for _, s := range steps {
		resolved, err := resolveStep(s, lookup)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved...)
	}
	return out, nil
}

// resolveStep resolves a single step, possibly expanding it into several
// (when a variable resolves to multiple steps at the top level) or wrapping
// the resolution back into the original Repeat/Weighted annotation.
func resolveStep(s Step, lookup func(string) ([]Step, bool)) ([]Step, error) {
	switch s.Kind {
	case KindVariable:
		replacement, ok := lookup(s.VariableName)
		if !ok {
			return nil, undefinedVariableError(s.VariableName)
		}
		return replacement, nil
	case KindRepeat:
		resolvedChild, err := resolveStep(*s.Child, lookup)
		if err != nil {
			return nil, err
		}
		inner := collapseToStep(resolvedChild)
		return []Step{NewRepeatStep(inner, s.RepeatCount)}, nil
	case KindWeighted:
		resolvedChild, err := resolveStep(*s.Child, lookup)
		if err != nil {
			return nil, err
		}
		inner := collapseToStep(resolvedChild)
		return []Step{NewWeightedStep(inner, s.Weight)}, nil
	case KindEuclidean:
		resolvedChild, err := resolveStep(*s.Child, lookup)
		if err != nil {
			return nil, err
		}
		inner := collapseToStep(resolvedChild)
		return []Step{NewEuclideanStep(inner, s.Pulses, s.Steps)}, nil
	case KindVelocity:
		resolvedChild, err := resolveStep(*s.Child, lookup)
		if err != nil {
			return nil, err
		}
		inner := collapseToStep(resolvedChild)
		return []Step{NewVelocityStep(inner, s.Velocity)}, nil
	case KindGroup:
		children, err := resolveSteps(s.Children, lookup)
		if err != nil {
			return nil, err
		}
		return []Step{NewGroupStep(children)}, nil
	case KindAlternation:
		children, err := resolveSteps(s.Children, lookup)
		if err != nil {
			return nil, err
		}
		return []Step{NewAlternationStep(children)}, nil
	case KindPolyrhythm:
		groups := make([][]Step, len(s.Groups))
		for i, g := range s.Groups {
			resolved, err := resolveSteps(g, lookup)
			if err != nil {
				return nil, err
			}
			groups[i] = resolved
		}
		return []Step{NewPolyrhythmStep(groups)}, nil
	default:
		return []Step{s}, nil
	}
}

// collapseToStep wraps multiple resolved steps into a Group, or returns the
// sole step unwrapped.
func collapseToStep(steps []Step) Step {
	if len(steps) == 1 {
		return steps[0]
	}
	return NewGroupStep(steps)
}
