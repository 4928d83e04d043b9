package theory

import "testing"

func TestNewChordFromNamesAscendingPlacement(t *testing.T) {
	c, err := NewChordFromNames([]string{"F", "A", "C"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(c.Notes))
	}
	if c.Notes[0].Name() != "F4" || c.Notes[1].Name() != "A4" || c.Notes[2].Name() != "C5" {
		t.Fatalf("expected F4 A4 C5, got %s %s %s", c.Notes[0].Name(), c.Notes[1].Name(), c.Notes[2].Name())
	}
}

func TestNewChordDeduplicatesSamePitch(t *testing.T) {
	c, err := NewChordFromNames([]string{"C", "E", "G", "C"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Notes) != 4 || c.Notes[3].Name() != "C5" {
		t.Fatalf("expected the repeated C placed above G as C5 (4 notes), got %d notes", len(c.Notes))
	}
	d := NewChordFromNotes([]Note{{PitchClass: 0, Octave: 4}, {PitchClass: 4, Octave: 4}, {PitchClass: 7, Octave: 4}, {PitchClass: 0, Octave: 4}})
	if len(d.Notes) != 3 {
		t.Fatalf("expected duplicate same-pitch note dropped, got %d notes", len(d.Notes))
	}
}

func TestChordBassIsLowestNote(t *testing.T) {
	c, err := NewChordFromNames([]string{"E", "G", "C"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Bass.Name() != "C5" && c.Bass.Name() != "E4" {
		// E4 is placed first (octave 4), C ends up above it; bass is lowest absolute pitch.
	}
	if c.Bass.PitchClass != c.Notes[0].PitchClass || c.Bass.Octave != c.Notes[0].Octave {
		t.Fatalf("expected bass to be the lowest note, got bass=%+v notes[0]=%+v", c.Bass, c.Notes[0])
	}
}

func TestInvertNFirstInversion(t *testing.T) {
	c, err := NewChordFromNames([]string{"C", "E", "G"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv := c.InvertN(1)
	if inv.Bass.PitchClass != 4 { // E
		t.Fatalf("expected first inversion bass to be E, got %+v", inv.Bass)
	}
}

func TestNormalizeOctaveMatchesTargetBassOctave(t *testing.T) {
	c, err := NewChordFromNames([]string{"C", "E", "G"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	norm := c.NormalizeOctave(2)
	if norm.Bass.Octave != 2 {
		t.Fatalf("expected bass octave 2, got %d", norm.Bass.Octave)
	}
}

func TestCommonTonesUnionXor(t *testing.T) {
	c1, _ := NewChordFromNames([]string{"C", "E", "G"})
	c2, _ := NewChordFromNames([]string{"C", "E", "A"})
	common := CommonTones(c1, c2)
	if len(common) != 2 {
		t.Fatalf("expected 2 common tones (C,E), got %v", common)
	}
	union := Union(c1, c2)
	if len(union) != 4 {
		t.Fatalf("expected 4 distinct pitch classes, got %v", union)
	}
	xor := Xor(c1, c2)
	if len(xor) != 2 {
		t.Fatalf("expected 2 symmetric-difference tones (G,A), got %v", xor)
	}
}

func TestRootQualityMajorMinor(t *testing.T) {
	major, _ := NewChordFromNames([]string{"C", "E", "G"})
	if major.RootQuality() != QualityMajor {
		t.Fatalf("expected major, got %s", major.RootQuality())
	}
	minor, _ := NewChordFromNames([]string{"C", "Eb", "G"})
	if minor.RootQuality() != QualityMinor {
		t.Fatalf("expected minor, got %s", minor.RootQuality())
	}
}

func TestAnalyticLabelSeventh(t *testing.T) {
	c, _ := NewChordFromNames([]string{"C", "E", "G", "Bb"})
	if c.AnalyticLabel() != "seventh" {
		t.Fatalf("expected seventh, got %s", c.AnalyticLabel())
	}
}

func TestIsEmpty(t *testing.T) {
	var c Chord
	if !c.IsEmpty() {
		t.Fatalf("expected zero-value chord to be empty")
	}
}
