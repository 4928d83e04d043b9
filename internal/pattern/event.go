package pattern

import (
	"fmt"
	"sort"

	"github.com/cadence-lang/cadence/internal/dsp"
	"github.com/cadence-lang/cadence/internal/theory"
)

// RenderedNote is a concrete, playable note produced by pattern expansion.
type RenderedNote struct {
	MIDI     int
	Hz       float64
	Name     string
	Velocity int
}

// DefaultVelocity is used for notes not wrapped in a Velocity step.
const DefaultVelocity = 100

func renderNote(n theory.Note, velocity int) RenderedNote {
	return RenderedNote{MIDI: n.MIDI(), Hz: n.Frequency(), Name: n.Name(), Velocity: velocity}
}

// atomicInfo is one indivisible (notes, drums, rest) unit produced while
// expanding a step, before duration/start-beat assignment.
type atomicInfo struct {
	Notes  []RenderedNote
	Drums  []dsp.DrumKind
	IsRest bool
}

func restInfo() atomicInfo { return atomicInfo{IsRest: true} }

// PlaybackEvent is a rendered event: notes, drums, rational start/duration,
// and a rest flag.
type PlaybackEvent struct {
	Notes     []RenderedNote
	Drums     []dsp.DrumKind
	StartBeat Rational
	Duration  Rational
	IsRest    bool
}

// Pattern is a sequence of steps plus its exact cycle length and optional
// per-pattern audio overrides.
type Pattern struct {
	Steps         []Step
	BeatsPerCycle Rational
	ADSR          *dsp.ADSRParams
	Waveform      *dsp.Waveform
	Pan           *float64
}

// NewPattern builds a pattern with the given steps and cycle length.
func NewPattern(steps []Step, beatsPerCycle Rational) Pattern {
	return Pattern{Steps: steps, BeatsPerCycle: beatsPerCycle}
}

// CycleIndex selects Alternation elements by cycle_number mod len. Passing
// nil selects element 0 everywhere (spec §4.2).
type CycleIndex *int

// ToEvents renders the pattern to its event list for a given cycle (nil
// selects element 0 for every Alternation). Returns a resolution/type error
// if a Variable step was left unresolved, without losing any events already
// produced — callers should treat a returned error as non-fatal per §7.
func (p Pattern) ToEvents(cycle *int) ([]PlaybackEvent, error) {
	totalWeight := Zero
	for _, s := range p.Steps {
		totalWeight = totalWeight.Add(s.weight())
	}
	if totalWeight.IsZero() || len(p.Steps) == 0 {
		return nil, nil
	}
	unit := p.BeatsPerCycle.Div(totalWeight)

	var events []PlaybackEvent
	currentBeat := Zero
	var firstErr error

	for _, step := range p.Steps {
		stepDuration := unit.Mul(step.weight())

		if step.Kind == KindPolyrhythm {
			advanced := renderPolyrhythm(step, stepDuration, currentBeat, cycle, &events, &firstErr)
			currentBeat = currentBeat.Add(advanced)
			continue
		}

		actual := step
		if step.Kind == KindWeighted {
			actual = *step.Child
		}

		infos, err := expandAtomic(actual, cycle)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if len(infos) == 0 {
			currentBeat = currentBeat.Add(stepDuration)
			continue
		}
		eventDuration := stepDuration.Div(RationalFromInt(int64(len(infos))))
		for _, info := range infos {
			events = append(events, PlaybackEvent{
				Notes:     info.Notes,
				Drums:     info.Drums,
				StartBeat: currentBeat,
				Duration:  eventDuration,
				IsRest:    info.IsRest,
			})
			currentBeat = currentBeat.Add(eventDuration)
		}
	}

	events = finalizeEvents(events)
	return events, firstErr
}

func renderPolyrhythm(step Step, stepDuration, outerStart Rational, cycle *int, events *[]PlaybackEvent, firstErr *error) Rational {
	for _, sub := range step.Groups {
		subLen := len(sub)
		if subLen == 0 {
			continue
		}
		subDuration := stepDuration.Div(RationalFromInt(int64(subLen)))
		cur := outerStart
		for _, child := range sub {
			actual := child
			if child.Kind == KindWeighted {
				actual = *child.Child
			}
			infos, err := expandAtomic(actual, cycle)
			if err != nil && *firstErr == nil {
				*firstErr = err
			}
			if len(infos) == 0 {
				cur = cur.Add(subDuration)
				continue
			}
			eventDur := subDuration.Div(RationalFromInt(int64(len(infos))))
			for _, info := range infos {
				*events = append(*events, PlaybackEvent{
					Notes:     info.Notes,
					Drums:     info.Drums,
					StartBeat: cur,
					Duration:  eventDur,
					IsRest:    info.IsRest,
				})
				cur = cur.Add(eventDur)
			}
		}
	}
	return stepDuration
}

// expandAtomic recursively produces the atomic (notes, drums, rest) list for
// one step, per spec §4.2 step 5.
func expandAtomic(s Step, cycle *int) ([]atomicInfo, error) {
	switch s.Kind {
	case KindNote:
		return []atomicInfo{{Notes: []RenderedNote{renderNote(s.Note, DefaultVelocity)}}}, nil
	case KindChord:
		notes := make([]RenderedNote, 0, len(s.Chord.Notes))
		for _, n := range s.Chord.Notes {
			notes = append(notes, renderNote(n, DefaultVelocity))
		}
		return []atomicInfo{{Notes: notes}}, nil
	case KindRest:
		return []atomicInfo{restInfo()}, nil
	case KindDrum:
		return []atomicInfo{{Drums: []dsp.DrumKind{s.Drum}}}, nil
	case KindVariable:
		return nil, undefinedVariableError(s.VariableName)
	case KindGroup:
		var out []atomicInfo
		var firstErr error
		for _, c := range s.Children {
			infos, err := expandAtomic(c, cycle)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			out = append(out, infos...)
		}
		return out, firstErr
	case KindRepeat:
		base, err := expandAtomic(*s.Child, cycle)
		var out []atomicInfo
		for i := 0; i < s.RepeatCount; i++ {
			out = append(out, base...)
		}
		return out, err
	case KindWeighted:
		return expandAtomic(*s.Child, cycle)
	case KindAlternation:
		if len(s.Children) == 0 {
			return nil, nil
		}
		idx := 0
		if cycle != nil {
			idx = ((*cycle % len(s.Children)) + len(s.Children)) % len(s.Children)
		}
		return expandAtomic(s.Children[idx], cycle)
	case KindEuclidean:
		rhythm := Bjorklund(s.Pulses, s.Steps)
		base, err := expandAtomic(*s.Child, cycle)
		var out []atomicInfo
		for _, hit := range rhythm {
			if hit {
				out = append(out, base...)
			} else {
				out = append(out, restInfo())
			}
		}
		return out, err
	case KindVelocity:
		infos, err := expandAtomic(*s.Child, cycle)
		tagged := make([]atomicInfo, len(infos))
		for i, info := range infos {
			notes := make([]RenderedNote, len(info.Notes))
			for j, n := range info.Notes {
				n.Velocity = s.Velocity
				notes[j] = n
			}
			tagged[i] = atomicInfo{Notes: notes, Drums: info.Drums, IsRest: info.IsRest}
		}
		return tagged, err
	default:
		return nil, fmt.Errorf("pattern: unknown step kind %d", s.Kind)
	}
}

// finalizeEvents sorts by start_beat (stable), merges events sharing a
// start_beat, and clips each event's duration to not exceed the next
// event's start (spec §3 PlaybackEvent invariant, §4.2 step 7).
func finalizeEvents(events []PlaybackEvent) []PlaybackEvent {
	if len(events) == 0 {
		return events
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartBeat.Cmp(events[j].StartBeat) < 0
	})

	merged := make([]PlaybackEvent, 0, len(events))
	for _, e := range events {
		if len(merged) > 0 && merged[len(merged)-1].StartBeat.Equal(e.StartBeat) {
			last := &merged[len(merged)-1]
			last.Notes = append(last.Notes, e.Notes...)
			last.Drums = append(last.Drums, e.Drums...)
			last.IsRest = last.IsRest && e.IsRest
			if e.Duration.Cmp(last.Duration) > 0 {
				last.Duration = e.Duration
			}
			continue
		}
		merged = append(merged, e)
	}

	for i := 0; i < len(merged)-1; i++ {
		maxDur := merged[i+1].StartBeat.Sub(merged[i].StartBeat)
		if merged[i].Duration.Cmp(maxDur) > 0 {
			merged[i].Duration = maxDur
		}
	}
	return merged
}
