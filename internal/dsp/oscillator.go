package dsp

import "math"

// Waveform selects the oscillator's periodic shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

// waveSample evaluates a waveform family at phase p in [0,1).
func waveSample(w Waveform, p float64) float64 {
	switch w {
	case WaveSine:
		return math.Sin(2 * math.Pi * p)
	case WaveSaw:
		return 2*p - 1
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		switch {
		case p < 0.25:
			return 4 * p
		case p < 0.75:
			return 2 - 4*p
		default:
			return 4*p - 4
		}
	default:
		return math.Sin(2 * math.Pi * p)
	}
}

// Oscillator is a single melodic voice: frequency, phase, waveform, and the
// envelope that shapes its amplitude.
type Oscillator struct {
	Frequency  float64
	Phase      float64
	Waveform   Waveform
	TrackID    int
	Envelope   *ADSR
	sampleRate float64
}

// NewOscillator creates an oscillator bound to a given sample rate.
func NewOscillator(freq float64, wf Waveform, trackID int, env *ADSR, sampleRate float64) *Oscillator {
	return &Oscillator{Frequency: freq, Waveform: wf, TrackID: trackID, Envelope: env, sampleRate: sampleRate}
}

// Next computes the waveform sample, advances phase, and scales by the
// envelope's next level. Output is always in [-1, 1].
func (o *Oscillator) Next() float64 {
	s := waveSample(o.Waveform, o.Phase)
	o.Phase += o.Frequency / o.sampleRate
	if o.Phase >= 1 {
		o.Phase -= math.Floor(o.Phase)
	}
	env := o.Envelope.Next()
	return s * env
}

// Finished reports whether the oscillator's envelope has decayed to silence.
func (o *Oscillator) Finished() bool {
	return o.Envelope.Finished()
}
