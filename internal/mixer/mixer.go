// Package mixer is the realtime audio output stage: per-track oscillator
// and drum voices, mixed into a single stereo stream via oto/v3's
// io.Reader-driven player. Grounded on other_examples icco-genidi's
// internal/audio synth (synthReader Read loop, voice pool, oto.NewContext
// wiring) generalized to the engine's ADSR/waveform/pan per-track state and
// the teacher's command-channel concurrency style from player/realtime.go.
package mixer

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/cadence-lang/cadence/internal/dsp"
)

const (
	SampleRate   = 44100
	channelCount = 2
	bitDepth     = 2
	headroom     = 0.3
	maxVoices    = 64
	// volumeRampSeconds is the time constant for master volume/play-state
	// ramping, chosen to avoid audible clicks on start/stop/volume changes.
	volumeRampSeconds = 0.25
)

type melodicVoice struct {
	trackID int
	osc     *dsp.Oscillator
}

type drumVoiceSlot struct {
	trackID int
	voice   *dsp.DrumVoice
}

// trackState is the per-track mixer configuration, guarded by Mixer.mu.
type trackState struct {
	volume   float64
	pan      float64 // -1 (left) .. +1 (right)
	envelope dsp.ADSRParams
	waveform dsp.Waveform

	// lastFreqs/lastWaveform cache the most recent SetTrackNotes call so a
	// step that repeats the same chord doesn't retrigger and click.
	lastFreqs    []float64
	lastWaveform dsp.Waveform
	notesPrimed  bool
}

func defaultTrackState() trackState {
	return trackState{volume: 1.0, pan: 0, envelope: dsp.DefaultADSR, waveform: dsp.WaveSine}
}

// Mixer owns the oto player and the mutable mixing state. All state is
// behind mu; the audio callback (Read) holds it for the duration of each
// buffer fill.
type Mixer struct {
	mu sync.Mutex

	ctx    *oto.Context
	player *oto.Player

	tracks map[int]*trackState

	melodic []*melodicVoice
	drums   []*drumVoiceSlot

	masterVolume      float64
	masterVolumeTarget float64
	playing           bool
	playRamp          float64 // 0 (silent) .. 1 (fully playing)
}

// New creates a Mixer and starts its realtime audio stream.
func New() (*Mixer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	m := &Mixer{
		tracks:             make(map[int]*trackState),
		masterVolume:       1.0,
		masterVolumeTarget: 1.0,
	}
	m.ctx = ctx
	m.player = ctx.NewPlayer(&mixerReader{m: m})
	m.player.Play()
	return m, nil
}

func (m *Mixer) trackLocked(id int) *trackState {
	t, ok := m.tracks[id]
	if !ok {
		ts := defaultTrackState()
		t = &ts
		m.tracks[id] = t
	}
	return t
}

// SetTrackVolume sets a track's linear volume in [0, 1].
func (m *Mixer) SetTrackVolume(trackID int, vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackLocked(trackID).volume = clamp01(vol)
}

// SetTrackPan sets a track's stereo pan in [-1, 1].
func (m *Mixer) SetTrackPan(trackID int, pan float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	m.trackLocked(trackID).pan = pan
}

// SetTrackEnvelope sets a track's ADSR shape for subsequently triggered notes.
func (m *Mixer) SetTrackEnvelope(trackID int, env dsp.ADSRParams) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackLocked(trackID).envelope = env
}

// SetTrackWaveform sets a track's oscillator waveform for subsequently
// triggered notes.
func (m *Mixer) SetTrackWaveform(trackID int, wf dsp.Waveform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackLocked(trackID).waveform = wf
}

// TrackWaveform returns a track's current oscillator waveform.
func (m *Mixer) TrackWaveform(trackID int) dsp.Waveform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackLocked(trackID).waveform
}

// SetMasterVolume sets the master volume target in [0, 1]; it ramps rather
// than jumps, to avoid a click.
func (m *Mixer) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolumeTarget = clamp01(vol)
}

// Play resumes audible output (ramped).
func (m *Mixer) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = true
}

// Pause silences output (ramped) without discarding voice state.
func (m *Mixer) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
}

// TriggerNote starts a melodic voice on a track at the given frequency,
// using the track's current waveform and envelope.
func (m *Mixer) TriggerNote(trackID int, freq float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.trackLocked(trackID)
	env := dsp.NewADSR(t.envelope, SampleRate)
	env.Trigger()
	osc := dsp.NewOscillator(freq, t.waveform, trackID, env, SampleRate)
	if len(m.melodic) >= maxVoices {
		m.melodic = m.melodic[1:]
	}
	m.melodic = append(m.melodic, &melodicVoice{trackID: trackID, osc: osc})
}

// ReleaseTrack releases the envelope of every currently-sounding melodic
// voice on a track, letting it ring out through its release stage, and
// forgets the track's last note set so the next SetTrackNotes triggers.
func (m *Mixer) ReleaseTrack(trackID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackLocked(trackID).notesPrimed = false
	for _, v := range m.melodic {
		if v.trackID == trackID {
			v.osc.Envelope.Release()
		}
	}
}

// SetTrackNotes replaces the set of frequencies sounding on a track. If
// freqs and waveform are unchanged from the last call, it is a no-op and
// the currently sounding voices keep ringing; otherwise the previous
// voices are released and fresh ones triggered for the new frequencies.
func (m *Mixer) SetTrackNotes(trackID int, freqs []float64, waveform dsp.Waveform) {
	m.mu.Lock()
	t := m.trackLocked(trackID)
	if t.notesPrimed && sameFreqs(t.lastFreqs, freqs) && t.lastWaveform == waveform {
		m.mu.Unlock()
		return
	}
	t.lastFreqs = append([]float64(nil), freqs...)
	t.lastWaveform = waveform
	t.waveform = waveform
	env := t.envelope
	m.mu.Unlock()

	m.ReleaseTrack(trackID)

	m.mu.Lock()
	defer m.mu.Unlock()
	t.notesPrimed = true
	for _, freq := range freqs {
		e := dsp.NewADSR(env, SampleRate)
		e.Trigger()
		osc := dsp.NewOscillator(freq, waveform, trackID, e, SampleRate)
		if len(m.melodic) >= maxVoices {
			m.melodic = m.melodic[1:]
		}
		m.melodic = append(m.melodic, &melodicVoice{trackID: trackID, osc: osc})
	}
}

// sameFreqs reports whether two frequency sets are identical in content
// and order.
func sameFreqs(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// PlayDrum starts a one-shot drum voice on a track.
func (m *Mixer) PlayDrum(trackID int, kind dsp.DrumKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	voice := dsp.NewDrumVoice(kind, trackID, SampleRate)
	if len(m.drums) >= maxVoices {
		m.drums = m.drums[1:]
	}
	m.drums = append(m.drums, &drumVoiceSlot{trackID: trackID, voice: voice})
}

// Close tears down the audio context.
func (m *Mixer) Close() {
	// oto/v3 players are reclaimed by the garbage collector; nothing to
	// close explicitly (see icco-genidi's audio.Synth.Close for the same
	// no-op rationale against this oto version).
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampSample(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// equalPowerPan returns the (left, right) gain multipliers for a pan value
// in [-1, 1] using the equal-power law.
func equalPowerPan(pan float64) (left, right float64) {
	// map [-1,1] -> [0,1]
	x := (pan + 1) / 2
	left = math.Sqrt(1 - x)
	right = math.Sqrt(x)
	return
}
