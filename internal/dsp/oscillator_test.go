package dsp

import "testing"

func TestOscillatorOutputStaysInRange(t *testing.T) {
	env := NewADSR(ADSRParams{Attack: 0.001, Decay: 0.001, Sustain: 1, Release: 0.01}, 44100)
	env.Trigger()
	osc := NewOscillator(440, WaveSine, 1, env, 44100)
	for i := 0; i < 1000; i++ {
		v := osc.Next()
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("sample %d out of [-1,1]: %v", i, v)
		}
	}
}

func TestOscillatorPhaseWraps(t *testing.T) {
	env := NewADSR(ADSRParams{Attack: 0, Decay: 0, Sustain: 1, Release: 0}, 100)
	env.Trigger()
	osc := NewOscillator(50, WaveSquare, 1, env, 100)
	for i := 0; i < 20; i++ {
		osc.Next()
		if osc.Phase < 0 || osc.Phase >= 1 {
			t.Fatalf("phase escaped [0,1): %v", osc.Phase)
		}
	}
}

func TestWaveSampleShapesAtKeyPhases(t *testing.T) {
	if got := waveSample(WaveSaw, 0); got != -1 {
		t.Fatalf("expected saw to start at -1, got %v", got)
	}
	if got := waveSample(WaveSquare, 0); got != 1 {
		t.Fatalf("expected square high at phase 0, got %v", got)
	}
	if got := waveSample(WaveSquare, 0.6); got != -1 {
		t.Fatalf("expected square low past phase 0.5, got %v", got)
	}
	if got := waveSample(WaveTriangle, 0); got != 0 {
		t.Fatalf("expected triangle to start at 0, got %v", got)
	}
}

func TestOscillatorFinishedTracksEnvelope(t *testing.T) {
	env := NewADSR(ADSRParams{Attack: 0.001, Decay: 0.001, Sustain: 0.5, Release: 0.001}, 1000)
	osc := NewOscillator(220, WaveSine, 1, env, 1000)
	if !osc.Finished() {
		t.Fatalf("expected an untriggered oscillator's envelope to report finished")
	}
	env.Trigger()
	if osc.Finished() {
		t.Fatalf("expected a triggered oscillator to not be finished")
	}
}
