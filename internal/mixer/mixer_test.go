package mixer

import (
	"testing"

	"github.com/cadence-lang/cadence/internal/dsp"
)

func newTestMixer() *Mixer {
	return &Mixer{tracks: make(map[int]*trackState)}
}

func countMelodic(m *Mixer, trackID int) int {
	n := 0
	for _, v := range m.melodic {
		if v.trackID == trackID {
			n++
		}
	}
	return n
}

func soundingStages(m *Mixer, trackID int) []dsp.Stage {
	var stages []dsp.Stage
	for _, v := range m.melodic {
		if v.trackID == trackID {
			stages = append(stages, v.osc.Envelope.CurrentStage())
		}
	}
	return stages
}

func TestSetTrackNotesTriggersFreshVoices(t *testing.T) {
	m := newTestMixer()
	m.SetTrackNotes(1, []float64{440, 660}, dsp.WaveSine)
	if got := countMelodic(m, 1); got != 2 {
		t.Fatalf("expected 2 voices, got %d", got)
	}
}

func TestSetTrackNotesIdenticalCallIsNoOp(t *testing.T) {
	m := newTestMixer()
	m.SetTrackNotes(1, []float64{440, 660}, dsp.WaveSine)
	m.SetTrackNotes(1, []float64{440, 660}, dsp.WaveSine)
	if got := countMelodic(m, 1); got != 2 {
		t.Fatalf("expected repeat of identical notes to stay at 2 voices, got %d", got)
	}
	for _, s := range soundingStages(m, 1) {
		if s == dsp.StageRelease || s == dsp.StageIdle {
			t.Fatalf("identical SetTrackNotes call should not release existing voices, got stage %v", s)
		}
	}
}

func TestSetTrackNotesChangedFrequenciesReleasesOldAndTriggersNew(t *testing.T) {
	m := newTestMixer()
	m.SetTrackNotes(1, []float64{440}, dsp.WaveSine)
	m.SetTrackNotes(1, []float64{550}, dsp.WaveSine)

	stages := soundingStages(m, 1)
	if len(stages) != 2 {
		t.Fatalf("expected old + new voice (2 total), got %d", len(stages))
	}
	released, attacking := 0, 0
	for _, s := range stages {
		switch s {
		case dsp.StageRelease:
			released++
		case dsp.StageAttack:
			attacking++
		}
	}
	if released != 1 || attacking != 1 {
		t.Fatalf("expected 1 released + 1 attacking voice, got released=%d attacking=%d", released, attacking)
	}
}

func TestSetTrackNotesChangedWaveformRetriggers(t *testing.T) {
	m := newTestMixer()
	m.SetTrackNotes(1, []float64{440}, dsp.WaveSine)
	m.SetTrackNotes(1, []float64{440}, dsp.WaveSaw)

	if got := countMelodic(m, 1); got != 2 {
		t.Fatalf("expected a waveform change to retrigger (2 voices total), got %d", got)
	}
}

func TestSetTrackNotesDoesNotAffectOtherTracks(t *testing.T) {
	m := newTestMixer()
	m.SetTrackNotes(1, []float64{440}, dsp.WaveSine)
	m.SetTrackNotes(2, []float64{220}, dsp.WaveSine)
	if got := countMelodic(m, 1); got != 1 {
		t.Fatalf("expected track 1 unaffected by track 2's SetTrackNotes, got %d", got)
	}
}

func TestEqualPowerPanCenter(t *testing.T) {
	l, r := equalPowerPan(0)
	if diff(l, r) > 1e-9 {
		t.Fatalf("center pan should be equal: got left=%v right=%v", l, r)
	}
	// equal-power law: l^2 + r^2 == 1
	if sumSq := l*l + r*r; diff(sumSq, 1) > 1e-9 {
		t.Fatalf("expected constant power 1, got %v", sumSq)
	}
}

func TestEqualPowerPanHardLeft(t *testing.T) {
	l, r := equalPowerPan(-1)
	if diff(l, 1) > 1e-9 || diff(r, 0) > 1e-9 {
		t.Fatalf("hard left should be (1,0), got (%v,%v)", l, r)
	}
}

func TestEqualPowerPanHardRight(t *testing.T) {
	l, r := equalPowerPan(1)
	if diff(l, 0) > 1e-9 || diff(r, 1) > 1e-9 {
		t.Fatalf("hard right should be (0,1), got (%v,%v)", l, r)
	}
}

func TestClampSample(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0}, {1.5, 1}, {-1.5, -1}, {0.5, 0.5}, {-0.5, -0.5},
	}
	for _, c := range cases {
		if got := clampSample(c.in); got != c.want {
			t.Fatalf("clampSample(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	if clamp01(-1) != 0 || clamp01(2) != 1 || clamp01(0.5) != 0.5 {
		t.Fatalf("clamp01 out of range")
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
