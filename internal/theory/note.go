// Package theory implements the music primitives of the engine: pitch
// classes, notes, and chords, and the conversions between note names, MIDI
// numbers, and frequencies.
package theory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Accidental is the preferred spelling used when printing a Note. It never
// affects pitch class or MIDI number, only display.
type Accidental int

const (
	Natural Accidental = iota
	Sharp
	Flat
)

// NoteNames are the sharp spellings for pitch classes 0-11, C=0.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNamesFlat are the flat spellings for pitch classes 0-11, C=0.
var NoteNamesFlat = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

var letterOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Note is a pitch class (0-11, C=0) plus a scientific-pitch octave (middle
// C = octave 4), together with the accidental spelling to use when printing.
type Note struct {
	PitchClass int
	Octave     int
	Accidental Accidental
}

// ParseNote parses a note name: a letter A-G, an optional '#' or 'b', and an
// optional signed octave number (default octave 4).
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Note{}, fmt.Errorf("theory: empty note")
	}
	letter := byte(s[0] & ^byte(0x20)) // uppercase
	base, ok := letterOffsets[letter]
	if !ok {
		return Note{}, fmt.Errorf("theory: %q is not a valid note letter", s)
	}
	i := 1
	acc := Natural
	pc := base
	if i < len(s) {
		switch s[i] {
		case '#':
			acc = Sharp
			pc++
			i++
		case 'b':
			acc = Flat
			pc--
			i++
		}
	}
	pc = ((pc % 12) + 12) % 12

	octave := 4
	if i < len(s) {
		rest := s[i:]
		n, err := strconv.Atoi(rest)
		if err != nil {
			return Note{}, fmt.Errorf("theory: %q has an invalid octave suffix %q", s, rest)
		}
		octave = n
	}
	return Note{PitchClass: pc, Octave: octave, Accidental: acc}, nil
}

// MIDI returns the MIDI note number, clamped to [0, 127].
func (n Note) MIDI() int {
	m := (n.Octave+1)*12 + n.PitchClass
	if m < 0 {
		return 0
	}
	if m > 127 {
		return 127
	}
	return m
}

// Frequency returns the note's frequency in Hz, A4 = 440Hz.
func (n Note) Frequency() float64 {
	midi := (n.Octave+1)*12 + n.PitchClass // unclamped, for accurate frequency math below clamp
	return 440.0 * math.Pow(2, (float64(midi)-69.0)/12.0)
}

// enharmonicLetterSpellings covers the pitch classes where the preferred
// accidental names a letter the sharp/flat tables don't carry at that pitch
// class (Cb, B#, Fb, E#) — a plain table lookup by pitch class would print
// the neighboring natural letter instead and lose the spelling entirely.
var enharmonicLetterSpellings = map[Accidental]map[int]string{
	Flat:  {11: "Cb", 4: "Fb"},
	Sharp: {0: "B#", 5: "E#"},
}

// Name renders the note using its preferred accidental spelling.
func (n Note) Name() string {
	if letters, ok := enharmonicLetterSpellings[n.Accidental]; ok {
		if name, ok := letters[n.PitchClass]; ok {
			return fmt.Sprintf("%s%d", name, n.Octave)
		}
	}
	var table *[12]string
	switch n.Accidental {
	case Flat:
		table = &NoteNamesFlat
	default:
		table = &NoteNames
	}
	return fmt.Sprintf("%s%d", table[n.PitchClass], n.Octave)
}

// Add transposes the note by the given number of semitones, carrying octaves.
func (n Note) Add(semitones int) Note {
	total := n.Octave*12 + n.PitchClass + semitones
	oct := total / 12
	pc := total % 12
	if pc < 0 {
		pc += 12
		oct--
	}
	return Note{PitchClass: pc, Octave: oct, Accidental: n.Accidental}
}

// Sub transposes the note down by the given number of semitones.
func (n Note) Sub(semitones int) Note {
	return n.Add(-semitones)
}

// MidiToFrequency converts a raw MIDI number to Hz.
func MidiToFrequency(midi int) float64 {
	return 440.0 * math.Pow(2, (float64(midi)-69.0)/12.0)
}

// NoteFromMIDI reconstructs a Note (sharp spelling) from a MIDI number.
func NoteFromMIDI(midi int) Note {
	oct := midi/12 - 1
	pc := ((midi % 12) + 12) % 12
	acc := Natural
	if strings.HasSuffix(NoteNames[pc], "#") {
		acc = Sharp
	}
	return Note{PitchClass: pc, Octave: oct, Accidental: acc}
}
