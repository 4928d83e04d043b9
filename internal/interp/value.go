// Package interp holds the surface-language value model and the shared,
// reactively-read environment: Values produced by evaluating expressions,
// Actions consumed by the session coordinator, and the RWMutex-protected
// environment map that ties interpreter writes to dispatcher reads.
// Grounded on original_source/src/interp/value.rs for the value taxonomy and
// the teacher's mutex-guarded shared-state style (player/realtime.go's `mu
// sync.Mutex` around playback fields) generalized to a read-write lock since
// readers vastly outnumber writers here.
package interp

import (
	"fmt"

	"github.com/cadence-lang/cadence/internal/pattern"
	"github.com/cadence-lang/cadence/internal/theory"
)

// Kind discriminates the Value union.
type Kind int

const (
	KindNumber Kind = iota
	KindBoolean
	KindString
	KindNote
	KindChord
	KindPattern
	KindArray
	KindFunction
	KindEveryPattern
)

// Function is a user-defined surface-language function: parameter names
// plus an unevaluated body, captured in its defining environment.
type Function struct {
	Params []string
	Body   string // unevaluated source text of the body
	Env    *Environment
}

// EveryPattern is the every(n, transform, pattern) combinator: a cycle
// selects Base on cycles where cycle mod N != N-1, Transformed otherwise.
type EveryPattern struct {
	Interval    int
	Base        pattern.Pattern
	Transformed pattern.Pattern
}

// Select returns the pattern that should sound on the given cycle, per the
// canonical "transformed on the last cycle of each N-cycle block" rule.
func (e EveryPattern) Select(cycle int) pattern.Pattern {
	n := e.Interval
	if n <= 0 {
		return e.Base
	}
	m := ((cycle % n) + n) % n
	if m == n-1 {
		return e.Transformed
	}
	return e.Base
}

// Value is a tagged union over the surface language's runtime values.
type Value struct {
	Kind     Kind
	Number   float64
	Boolean  bool
	String   string
	Note     theory.Note
	Chord    theory.Chord
	Pattern  pattern.Pattern
	Array    []Value
	Function *Function
	Every    EveryPattern
}

func NumberValue(n float64) Value   { return Value{Kind: KindNumber, Number: n} }
func BooleanValue(b bool) Value     { return Value{Kind: KindBoolean, Boolean: b} }
func StringValue(s string) Value    { return Value{Kind: KindString, String: s} }
func NoteValue(n theory.Note) Value { return Value{Kind: KindNote, Note: n} }
func ChordValue(c theory.Chord) Value { return Value{Kind: KindChord, Chord: c} }
func PatternValue(p pattern.Pattern) Value { return Value{Kind: KindPattern, Pattern: p} }
func ArrayValue(vs []Value) Value   { return Value{Kind: KindArray, Array: vs} }
func FunctionValue(f *Function) Value { return Value{Kind: KindFunction, Function: f} }
func EveryValue(e EveryPattern) Value { return Value{Kind: KindEveryPattern, Every: e} }

// Describe renders a Value for diagnostics.
func (v Value) Describe() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%g", v.Number)
	case KindBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case KindString:
		return v.String
	case KindNote:
		return v.Note.Name()
	case KindChord:
		return fmt.Sprintf("chord(%d notes)", len(v.Chord.Notes))
	case KindPattern:
		return fmt.Sprintf("pattern(%d steps)", len(v.Pattern.Steps))
	case KindArray:
		return fmt.Sprintf("array(%d)", len(v.Array))
	case KindFunction:
		return fmt.Sprintf("fn(%v)", v.Function.Params)
	case KindEveryPattern:
		return fmt.Sprintf("every(%d)", v.Every.Interval)
	default:
		return "<unknown>"
	}
}

// ResolveToStepEvents converts a Value to the list of playback events a loop
// steps through, one per beat, per the dispatcher's "inspect the resulting
// value" rule: Pattern computes its own event list, EveryPattern uses the
// pattern it selects for the cycle, Note/Chord become a one-element list,
// String is re-parsed as a pattern.
func ResolveToStepEvents(v Value, cycle *int) ([]pattern.PlaybackEvent, error) {
	switch v.Kind {
	case KindPattern:
		return v.Pattern.ToEvents(cycle)
	case KindEveryPattern:
		c := 0
		if cycle != nil {
			c = *cycle
		}
		return v.Every.Select(c).ToEvents(cycle)
	case KindNote:
		return []pattern.PlaybackEvent{{
			Notes:     []pattern.RenderedNote{{MIDI: v.Note.MIDI(), Hz: v.Note.Frequency(), Name: v.Note.Name(), Velocity: pattern.DefaultVelocity}},
			Duration:  pattern.RationalFromInt(1),
		}}, nil
	case KindChord:
		notes := make([]pattern.RenderedNote, len(v.Chord.Notes))
		for i, n := range v.Chord.Notes {
			notes[i] = pattern.RenderedNote{MIDI: n.MIDI(), Hz: n.Frequency(), Name: n.Name(), Velocity: pattern.DefaultVelocity}
		}
		return []pattern.PlaybackEvent{{Notes: notes, Duration: pattern.RationalFromInt(1)}}, nil
	case KindString:
		p, err := pattern.Parse(v.String)
		if err != nil {
			return nil, err
		}
		return p.ToEvents(cycle)
	default:
		return nil, fmt.Errorf("interp: value %q cannot be played", v.Describe())
	}
}
