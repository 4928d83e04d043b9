package session

import (
	"fmt"
	"strings"

	"github.com/cadence-lang/cadence/internal/clock"
	"github.com/cadence-lang/cadence/internal/dispatcher"
	"github.com/cadence-lang/cadence/internal/interp"
	"github.com/cadence-lang/cadence/internal/midisink"
	"github.com/cadence-lang/cadence/internal/mixer"
)

const maxTracks = 16

// Session is the process-wide coordinator: it owns every long-lived
// component and is the single place actions from the surface language are
// routed to hardware. Grounded on the teacher's RealtimePlayer as "the one
// struct that holds every subsystem handle and exposes command methods",
// generalized from a single fixed MIDI file to a live, reactively
// re-evaluated set of loops.
type Session struct {
	cfg Config

	clk  *clock.Clock
	mix  *mixer.Mixer
	midi *midisink.Sink
	disp *dispatcher.Dispatcher
	env  *interp.Environment

	beatTicks chan clock.Tick

	nextLoopID int
	// trackLoop records which loop id is currently looping on a track, so
	// hot-reload can tell "already playing" from "idle".
	trackLoop map[int]int
}

// New wires every subsystem per cfg and starts the clock and dispatcher.
func New(cfg Config) (*Session, error) {
	mix, err := mixer.New()
	if err != nil {
		return nil, fmt.Errorf("session: audio init failed: %w", err)
	}

	var sink *midisink.Sink
	if cfg.WantsMidi() {
		sink = midisink.New(cfg.ChannelPolicy(), uint8(cfg.FixedChannel))
		if port := selectMidiPort(cfg.MidiPort); port >= 0 {
			sink.Connect(port)
		} else {
			fmt.Println("session: no MIDI output port available, MIDI output disabled")
		}
	}

	disp := dispatcher.New(mix, sink)
	clk := clock.New(cfg.Tempo)
	clk.Subscribe(disp.TickChannel())

	beatTicks := make(chan clock.Tick, 64)
	clk.Subscribe(beatTicks)

	s := &Session{
		cfg:       cfg,
		clk:       clk,
		mix:       mix,
		midi:      sink,
		disp:      disp,
		env:       interp.NewEnvironment(),
		beatTicks: beatTicks,
		trackLoop: make(map[int]int),
	}
	go s.trackBeat()
	clk.Start()
	if cfg.WantsSynth() {
		mix.Play()
	}
	return s, nil
}

// selectMidiPort finds the first port whose name contains substr (case
// sensitive, per the external-interface contract); substr == "" matches the
// first available port. Returns -1 if no port is available.
func selectMidiPort(substr string) int {
	ports := midisink.ListPorts()
	if len(ports) == 0 {
		return -1
	}
	if substr == "" {
		return 0
	}
	for i, name := range ports {
		if strings.Contains(name, substr) {
			return i
		}
	}
	return -1
}

// trackBeat keeps the shared environment's `_beat` entry current so that
// beat() inside expressions reflects the live transport position.
func (s *Session) trackBeat() {
	for t := range s.beatTicks {
		s.env.SetBeat(float64(t.BeatNumber) + t.BeatFraction)
	}
}

// resolveTrack clamps a requested track id into [1, maxTracks], routing
// anything out of range to track 1 with a printed warning.
func resolveTrack(id int) int {
	if id < 1 || id > maxTracks {
		fmt.Printf("session: track %d out of range, routing to track 1\n", id)
		return 1
	}
	return id
}

// Run executes src against the shared environment and applies every
// resulting action unconditionally. Used for the initial startup file.
func (s *Session) Run(src string) error {
	actions, err := interp.ExecuteProgram(src, s.env)
	if err != nil {
		return err
	}
	for _, a := range actions {
		s.applyAction(a)
	}
	return nil
}

// HotReload re-executes src against the shared environment and applies the
// resulting actions after filtering: a looped Play on a track that is
// already playing is dropped, since the dispatcher will pick up the
// redefinition on its next beat without needing to be told.
func (s *Session) HotReload(src string) error {
	actions, err := interp.ExecuteProgram(src, s.env)
	if err != nil {
		return err
	}
	for _, a := range actions {
		if a.Kind == interp.ActionPlayExpression && a.Looping {
			track := resolveTrack(a.TrackID)
			if _, playing := s.trackLoop[track]; playing {
				continue
			}
		}
		s.applyAction(a)
	}
	return nil
}

func (s *Session) applyAction(a interp.Action) {
	switch a.Kind {
	case interp.ActionPlayExpression:
		track := resolveTrack(a.TrackID)
		if a.Looping {
			s.startLoop(track, a.Expr, a.Queue)
		} else {
			s.playOnce(track, a.Expr, a.Queue)
		}
	case interp.ActionSetTempo:
		s.clk.SetBpm(a.Bpm)
	case interp.ActionSetVolume:
		track := resolveTrack(a.TrackID)
		s.disp.SetTrackVolume(track, a.Volume)
	case interp.ActionStop:
		if a.HasTrack {
			s.stopTrack(resolveTrack(a.TrackID))
		} else {
			s.stopAll()
		}
	}
}

func (s *Session) startLoop(track int, expr string, queue bool) {
	if id, ok := s.trackLoop[track]; ok {
		s.disp.StopLoop(id)
	}
	s.nextLoopID++
	id := s.nextLoopID
	s.trackLoop[track] = id
	_ = queue // looping play always starts on the next beat boundary; no extra quantization needed
	s.disp.StartLoop(dispatcher.LoopingPattern{
		ID:      id,
		TrackID: track,
		Expr:    expr,
		Env:     s.env,
	})
}

func (s *Session) playOnce(track int, expr string, queue bool) {
	v, err := interp.EvalExpression(expr, s.env)
	if err != nil {
		fmt.Printf("session: %v\n", err)
		return
	}
	events, err := interp.ResolveToStepEvents(v, nil)
	if err != nil {
		fmt.Printf("session: %v\n", err)
		return
	}
	baseBeat := s.env.Beat()
	if queue {
		baseBeat = nextIntegerBeatAtOrAfter(baseBeat)
	}
	var scheduled []dispatcher.ScheduledEvent
	for _, ev := range events {
		freqs := make([]float64, 0, len(ev.Notes))
		midiNotes := make([]uint8, 0, len(ev.Notes))
		velocity := uint8(100)
		for _, n := range ev.Notes {
			freqs = append(freqs, n.Hz)
			midiNotes = append(midiNotes, clampByte(n.MIDI))
			velocity = clampByte(n.Velocity)
		}
		scheduled = append(scheduled, dispatcher.ScheduledEvent{
			ScheduledBeat: ev.StartBeat.Float64(),
			Kind:          dispatcher.EventPlayNotes,
			TrackID:       track,
			Frequencies:   freqs,
			MidiNotes:     midiNotes,
			Velocity:      velocity,
			Drums:         ev.Drums,
		})
	}
	s.disp.Schedule(scheduled, baseBeat)
}

// nextIntegerBeatAtOrAfter quantizes a beat position up to the next whole
// beat at or after it, per the queued-play scheduling rule.
func nextIntegerBeatAtOrAfter(beat float64) float64 {
	whole := float64(int64(beat))
	if whole < beat {
		whole++
	}
	return whole
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

func (s *Session) stopTrack(track int) {
	if id, ok := s.trackLoop[track]; ok {
		delete(s.trackLoop, track)
		s.disp.StopLoop(id)
	}
	s.disp.StopTrack(track)
}

func (s *Session) stopAll() {
	s.trackLoop = make(map[int]int)
	s.disp.StopAll()
}

// Shutdown tears down every subsystem in reverse dependency order.
func (s *Session) Shutdown() {
	s.clk.Shutdown()
	s.disp.Shutdown()
	if s.midi != nil {
		s.midi.Shutdown()
	}
	s.mix.Close()
	close(s.beatTicks)
}
