package dsp

import "math"

// DrumKind enumerates the synthesized percussion voices.
type DrumKind int

const (
	DrumKick DrumKind = iota
	DrumSnare
	DrumHihat
	DrumOpenHat
	DrumClap
	DrumTom
	DrumCrash
	DrumRide
	DrumRim
	DrumCowbell
)

var drumNames = map[string]DrumKind{
	"kick": DrumKick, "bd": DrumKick,
	"snare": DrumSnare, "sd": DrumSnare,
	"hihat": DrumHihat, "hh": DrumHihat, "ch": DrumHihat,
	"openhat": DrumOpenHat, "oh": DrumOpenHat, "open-hat": DrumOpenHat,
	"clap": DrumClap, "cp": DrumClap,
	"tom": DrumTom,
	"crash": DrumCrash, "cr": DrumCrash,
	"ride": DrumRide,
	"rim": DrumRim,
	"cowbell": DrumCowbell,
}

// LookupDrum resolves a lowercase mini-notation token to a DrumKind.
func LookupDrum(name string) (DrumKind, bool) {
	k, ok := drumNames[name]
	return k, ok
}

// maxDurationSeconds is the fixed maximum duration of a one-shot drum voice.
var maxDurationSeconds = map[DrumKind]float64{
	DrumKick: 0.300, DrumSnare: 0.200, DrumHihat: 0.080, DrumOpenHat: 0.400,
	DrumClap: 0.150, DrumTom: 0.250, DrumCrash: 0.800, DrumRide: 0.600,
	DrumRim: 0.100, DrumCowbell: 0.200,
}

// MaxDuration returns the fixed maximum duration for a drum kind.
func MaxDuration(k DrumKind) float64 {
	return maxDurationSeconds[k]
}

// DrumVoice is a one-shot synthesized percussion voice.
type DrumVoice struct {
	kind       DrumKind
	sampleRate float64
	sampleIdx  int64
	maxSamples int64
	noise      *Xorshift32
	trackID    int
	prevNoise  float64 // previous hi-hat noise draw, for the high-pass difference
}

// NewDrumVoice creates a drum voice for the given kind, seeded deterministically
// from the (trackID, kind) pair.
func NewDrumVoice(kind DrumKind, trackID int, sampleRate float64) *DrumVoice {
	return &DrumVoice{
		kind:       kind,
		sampleRate: sampleRate,
		maxSamples: int64(maxDurationSeconds[kind] * sampleRate),
		noise:      NewXorshift32(DrumNoiseSeed(trackID, kind)),
		trackID:    trackID,
	}
}

// Finished reports whether the voice's sample count has exceeded its max.
func (d *DrumVoice) Finished() bool {
	return d.sampleIdx > d.maxSamples
}

// Next produces the next sample, or 0 once Finished. t is elapsed seconds.
func (d *DrumVoice) Next() float64 {
	if d.Finished() {
		return 0
	}
	t := float64(d.sampleIdx) / d.sampleRate
	d.sampleIdx++
	switch d.kind {
	case DrumKick:
		return d.kick(t)
	case DrumSnare:
		return d.snare(t)
	case DrumHihat:
		return d.hihat(t, 18)
	case DrumOpenHat:
		return d.hihat(t, 4)
	case DrumClap:
		return d.clap(t)
	case DrumTom:
		return d.tom(t)
	case DrumCrash:
		return d.crash(t)
	case DrumRide:
		return d.ride(t)
	case DrumRim:
		return d.rim(t)
	case DrumCowbell:
		return d.cowbell(t)
	default:
		return 0
	}
}

func expEnv(t, k float64) float64 {
	return math.Exp(-t * k)
}

func (d *DrumVoice) kick(t float64) float64 {
	sweep := 150 - (150-50)*math.Min(1, t/0.08)
	body := math.Sin(2*math.Pi*sweep*t) * expEnv(t, 14)
	click := 0.0
	if t < 0.005 {
		click = math.Sin(2*math.Pi*2000*t) * (1 - t/0.005)
	}
	return body*0.9 + click*0.6
}

func (d *DrumVoice) tom(t float64) float64 {
	sweep := 120 - (120-80)*math.Min(1, t/0.1)
	return math.Sin(2*math.Pi*sweep*t) * expEnv(t, 10)
}

func (d *DrumVoice) snare(t float64) float64 {
	body := math.Sin(2*math.Pi*200*t) * expEnv(t, 25)
	noise := d.noise.Float64() * expEnv(t, 18)
	return body*0.3 + noise*0.7
}

func (d *DrumVoice) hihat(t, decayK float64) float64 {
	n := d.noise.Float64()
	// crude high-pass: difference against a one-sample-delayed copy.
	hp := (n - d.prevNoise) * 0.5
	d.prevNoise = n
	return hp * expEnv(t, decayK)
}

func (d *DrumVoice) clap(t float64) float64 {
	sum := 0.0
	for i := 0; i < 3; i++ {
		offset := float64(i) * 0.015
		if t >= offset {
			sum += d.noise.Float64() * expEnv(t-offset, 40)
		}
	}
	return sum / 3
}

func (d *DrumVoice) crash(t float64) float64 {
	noise := d.noise.Float64()
	shimmer := math.Sin(2*math.Pi*5000*t) * 0.3
	return (noise + shimmer) * expEnv(t, 2.5)
}

func (d *DrumVoice) ride(t float64) float64 {
	bell := math.Sin(2*math.Pi*800*t) + 0.5*math.Sin(2*math.Pi*1200*t) + 0.3*math.Sin(2*math.Pi*2400*t)
	noise := d.noise.Float64() * 0.3
	return (bell*0.4 + noise) * expEnv(t, 4)
}

func (d *DrumVoice) rim(t float64) float64 {
	return math.Sin(2*math.Pi*3000*t) * expEnv(t, 60)
}

func (d *DrumVoice) cowbell(t float64) float64 {
	a := math.Sin(2 * math.Pi * 560 * t)
	b := math.Sin(2 * math.Pi * 845 * t)
	return (a+b)/2*expEnv(t, 12)
}
