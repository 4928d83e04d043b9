package theory

import (
	"fmt"
	"sort"
)

// Chord couples three things: the deduplicated, pitch-ordered set of member
// notes, an explicit bass note, and the input-order list used for display
// and inversion.
type Chord struct {
	Notes    []Note // deduplicated, ordered by ascending pitch
	Bass     Note
	InputOrder []Note // as originally given, before dedup/sort
}

// NewChordFromNames builds a chord from pitch-class names without octaves,
// placing successive notes in strictly ascending absolute pitch starting
// from octave 4. This is what makes [F A C] read as F4-A4-C5.
func NewChordFromNames(names []string) (Chord, error) {
	if len(names) == 0 {
		return Chord{}, nil
	}
	notes := make([]Note, 0, len(names))
	prevAbs := -1
	for _, name := range names {
		n, err := ParseNote(name)
		if err != nil {
			return Chord{}, fmt.Errorf("theory: chord note %q: %w", name, err)
		}
		n.Octave = 4
		abs := n.Octave*12 + n.PitchClass
		for abs <= prevAbs {
			n.Octave++
			abs += 12
		}
		prevAbs = abs
		notes = append(notes, n)
	}
	return newChord(notes), nil
}

// NewChordFromNotes builds a chord directly from concrete notes (already
// placed at specific octaves), used when merging rendered notes rather than
// parsing pitch-class names.
func NewChordFromNotes(notes []Note) Chord {
	return newChord(notes)
}

func newChord(inputOrder []Note) Chord {
	dedup := make([]Note, 0, len(inputOrder))
	seen := map[int]bool{}
	for _, n := range inputOrder {
		key := n.Octave*12 + n.PitchClass
		if seen[key] {
			continue
		}
		seen[key] = true
		dedup = append(dedup, n)
	}
	sort.Slice(dedup, func(i, j int) bool {
		return dedup[i].Octave*12+dedup[i].PitchClass < dedup[j].Octave*12+dedup[j].PitchClass
	})
	bass := inputOrder[0]
	if len(dedup) > 0 {
		lowest := dedup[0]
		for _, n := range dedup {
			if n.Octave*12+n.PitchClass < lowest.Octave*12+lowest.PitchClass {
				lowest = n
			}
		}
		bass = lowest
	}
	return Chord{Notes: dedup, Bass: bass, InputOrder: inputOrder}
}

// IsEmpty reports whether the chord has no member notes.
func (c Chord) IsEmpty() bool {
	return len(c.Notes) == 0
}

// InvertN rotates the input-order list by k positions, raising each rotated
// note by one octave. The resulting chord's bass is the k-th original note.
func (c Chord) InvertN(k int) Chord {
	n := len(c.InputOrder)
	if n == 0 {
		return c
	}
	k = ((k % n) + n) % n
	rotated := make([]Note, n)
	for i := 0; i < n; i++ {
		src := c.InputOrder[(i+k)%n]
		if i+k >= n {
			src = src.Add(12)
		}
		rotated[i] = src
	}
	return newChord(rotated)
}

// NormalizeOctave shifts every voice by a common multiple of 12 semitones so
// that the bass's octave equals target. Prevents octave drift when chaining
// inversions.
func (c Chord) NormalizeOctave(target int) Chord {
	if len(c.InputOrder) == 0 {
		return c
	}
	delta := (target - c.Bass.Octave) * 12
	shifted := make([]Note, len(c.InputOrder))
	for i, n := range c.InputOrder {
		shifted[i] = n.Add(delta)
	}
	return newChord(shifted)
}

// PitchClassSet returns the distinct pitch classes present in the chord.
func (c Chord) PitchClassSet() map[int]bool {
	set := make(map[int]bool, len(c.Notes))
	for _, n := range c.Notes {
		set[n.PitchClass] = true
	}
	return set
}

// CommonTones returns the pitch classes shared between two chords.
func CommonTones(a, b Chord) []int {
	as, bs := a.PitchClassSet(), b.PitchClassSet()
	var out []int
	for pc := range as {
		if bs[pc] {
			out = append(out, pc)
		}
	}
	sort.Ints(out)
	return out
}

// Union returns the union of pitch classes present in either chord.
func Union(a, b Chord) []int {
	set := a.PitchClassSet()
	for pc := range b.PitchClassSet() {
		set[pc] = true
	}
	return sortedKeys(set)
}

// Xor returns the pitch classes present in exactly one of the two chords.
func Xor(a, b Chord) []int {
	as, bs := a.PitchClassSet(), b.PitchClassSet()
	set := map[int]bool{}
	for pc := range as {
		if !bs[pc] {
			set[pc] = true
		}
	}
	for pc := range bs {
		if !as[pc] {
			set[pc] = true
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for pc := range set {
		out = append(out, pc)
	}
	sort.Ints(out)
	return out
}

// intervalClasses returns the sorted semitone intervals of each note above
// the lowest note, used for root-quality detection on triads.
func (c Chord) intervalClasses() []int {
	if len(c.Notes) == 0 {
		return nil
	}
	root := c.Notes[0].Octave*12 + c.Notes[0].PitchClass
	out := make([]int, 0, len(c.Notes)-1)
	for _, n := range c.Notes[1:] {
		out = append(out, (n.Octave*12+n.PitchClass)-root)
	}
	return out
}

// Quality identifies a triad's quality by its interval-class pattern.
type Quality string

const (
	QualitySus2   Quality = "sus2"
	QualityMinor  Quality = "minor"
	QualityMajor  Quality = "major"
	QualityDim    Quality = "dim"
	QualityAug    Quality = "aug"
	QualitySus4   Quality = "sus4"
	QualityUnknown Quality = "unknown"
)

var triadPatterns = []struct {
	intervals [2]int
	quality   Quality
}{
	{[2]int{2, 7}, QualitySus2},
	{[2]int{3, 7}, QualityMinor},
	{[2]int{4, 7}, QualityMajor},
	{[2]int{3, 6}, QualityDim},
	{[2]int{4, 8}, QualityAug},
	{[2]int{5, 7}, QualitySus4},
}

// RootQuality detects the quality of a 3-note chord by matching its
// interval-class pattern above the lowest note (mod 12).
func (c Chord) RootQuality() Quality {
	if len(c.Notes) != 3 {
		return QualityUnknown
	}
	ic := c.intervalClasses()
	a, b := ic[0]%12, ic[1]%12
	for _, p := range triadPatterns {
		if p.intervals[0] == a && p.intervals[1] == b {
			return p.quality
		}
	}
	return QualityUnknown
}

// AnalyticLabel returns a short label for 3- or 4-note chords: the triad
// quality, or seventh/sixth/suspended-seventh for 4-note chords.
func (c Chord) AnalyticLabel() string {
	switch len(c.Notes) {
	case 3:
		return string(c.RootQuality())
	case 4:
		ic := c.intervalClasses()
		a, b, d := ic[0]%12, ic[1]%12, ic[2]%12
		switch {
		case (a == 5 || a == 2) && b == 7:
			return "suspended seventh"
		case d == 9:
			return "sixth"
		default:
			return "seventh"
		}
	default:
		return string(QualityUnknown)
	}
}
