// Package dispatcher is the event dispatcher: a single goroutine selecting
// over a command channel and the master clock's tick channel, driving a
// min-heap of scheduled one-shot events and a table of looping patterns
// against the audio mixer and MIDI sink. Grounded on teacher's
// player/realtime.go playbackLoop (select/ticker-driven dispatch, lastEventIdx
// walking a sorted event list) generalized from a fixed MIDI file to a
// reactively re-evaluated pattern table, using container/heap for the
// scheduled-event priority queue (no priority-queue library appears
// anywhere in the retrieved pack).
package dispatcher

import (
	"container/heap"
	"fmt"

	"github.com/cadence-lang/cadence/internal/clock"
	"github.com/cadence-lang/cadence/internal/dsp"
	"github.com/cadence-lang/cadence/internal/interp"
	"github.com/cadence-lang/cadence/internal/midisink"
	"github.com/cadence-lang/cadence/internal/mixer"
)

// EventKind identifies what a ScheduledEvent does when dispatched.
type EventKind int

const (
	EventPlayNotes EventKind = iota
	EventSetTempo
	EventSetVolume
	EventStopTrack
)

// ScheduledEvent is a one-shot action bound to a beat.
type ScheduledEvent struct {
	ScheduledBeat float64
	Kind          EventKind
	TrackID       int
	Frequencies   []float64
	MidiNotes     []uint8
	Velocity      uint8
	Drums         []dsp.DrumKind
	Bpm           float64
	Volume        float64
	seq           int64 // enqueue order, breaks beat ties (same tick, enqueue order)
}

// eventHeap is a container/heap.Interface ordering ScheduledEvents by beat,
// then by enqueue order.
type eventHeap []*ScheduledEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].ScheduledBeat != h[j].ScheduledBeat {
		return h[i].ScheduledBeat < h[j].ScheduledBeat
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*ScheduledEvent)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// LoopingPattern is an active loop: an unevaluated expression re-read from
// the shared environment every beat, plus its own step/cycle cursor.
type LoopingPattern struct {
	ID         int
	TrackID    int
	Expr       string
	Env        *interp.Environment
	StepIndex  int
	CycleIndex int
}

type commandKind int

const (
	cmdSchedule commandKind = iota
	cmdStartLoop
	cmdStopLoop
	cmdStopTrack
	cmdStopAll
	cmdSetTrackVolume
	cmdSetTrackWaveform
	cmdTriggerImmediate
	cmdShutdown
)

type command struct {
	kind commandKind

	events   []ScheduledEvent
	baseBeat float64

	loopID    int
	loop      LoopingPattern
	trackID   int
	volume    float64
	wf        dsp.Waveform
	freqs     []float64
	midiNotes []uint8
	velocity  uint8
	drums     []dsp.DrumKind

	done chan struct{}
}

// Dispatcher owns the heap, the loop table, and the connections to the
// mixer and MIDI sink. All mutation happens on its single goroutine.
type Dispatcher struct {
	cmd     chan command
	ticks   chan clock.Tick
	stopped chan struct{}

	mixer *mixer.Mixer
	midi  *midisink.Sink

	// activeMidiNotes tracks the notes a track's last MIDI event turned on,
	// so the next event can send Note Off for them first (monophonic-per-
	// track overwrite, matching the teacher's explicit note-on/note-off
	// pairing rather than timer-scheduled note-offs).
	activeMidiNotes map[int][]uint8
}

// New creates a Dispatcher wired to a mixer and MIDI sink, and starts its
// goroutine. Subscribe tickSource to feed it clock ticks.
func New(m *mixer.Mixer, sink *midisink.Sink) *Dispatcher {
	d := &Dispatcher{
		cmd:             make(chan command, 256),
		ticks:           make(chan clock.Tick, 256),
		stopped:         make(chan struct{}),
		mixer:           m,
		midi:            sink,
		activeMidiNotes: make(map[int][]uint8),
	}
	go d.run()
	return d
}

// TickChannel returns the channel the dispatcher expects clock ticks on;
// callers pass this to clock.Clock.Subscribe.
func (d *Dispatcher) TickChannel() chan clock.Tick { return d.ticks }

// Schedule enqueues events, adding baseBeat to each event's ScheduledBeat.
func (d *Dispatcher) Schedule(events []ScheduledEvent, baseBeat float64) {
	d.cmd <- command{kind: cmdSchedule, events: events, baseBeat: baseBeat}
}

// StartLoop begins (or replaces) a loop on its track.
func (d *Dispatcher) StartLoop(loop LoopingPattern) {
	d.cmd <- command{kind: cmdStartLoop, loop: loop}
}

// StopLoop removes a loop by id and clears its track's sounding notes.
func (d *Dispatcher) StopLoop(id int) {
	d.cmd <- command{kind: cmdStopLoop, loopID: id}
}

// StopTrack removes any loop on trackID, drops its pending events, and
// clears its sounding notes.
func (d *Dispatcher) StopTrack(trackID int) {
	d.cmd <- command{kind: cmdStopTrack, trackID: trackID}
}

// StopAll clears every loop, every pending event, and every track's notes
// for tracks 1..=16.
func (d *Dispatcher) StopAll() {
	d.cmd <- command{kind: cmdStopAll}
}

// SetTrackVolume forwards a volume change to the mixer from the dispatcher
// goroutine (kept serialized with other per-track state changes).
func (d *Dispatcher) SetTrackVolume(trackID int, volume float64) {
	d.cmd <- command{kind: cmdSetTrackVolume, trackID: trackID, volume: volume}
}

// SetTrackWaveform forwards a waveform change to the mixer.
func (d *Dispatcher) SetTrackWaveform(trackID int, wf dsp.Waveform) {
	d.cmd <- command{kind: cmdSetTrackWaveform, trackID: trackID, wf: wf}
}

// TriggerImmediate bypasses scheduling and drives the mixer/MIDI sink
// directly, for non-quantized one-shot playback.
func (d *Dispatcher) TriggerImmediate(trackID int, freqs []float64, midiNotes []uint8, velocity uint8, drums []dsp.DrumKind) {
	d.cmd <- command{kind: cmdTriggerImmediate, trackID: trackID, freqs: freqs, midiNotes: midiNotes, velocity: velocity, drums: drums}
}

// Shutdown stops the dispatcher goroutine and waits for it to exit.
func (d *Dispatcher) Shutdown() {
	done := make(chan struct{})
	d.cmd <- command{kind: cmdShutdown, done: done}
	<-done
}

func (d *Dispatcher) run() {
	events := &eventHeap{}
	heap.Init(events)
	loops := make(map[int]*LoopingPattern) // loop id -> loop
	trackLoop := make(map[int]int)         // track id -> loop id
	var seqCounter int64
	lastLoopBeat := int64(-1)

	for {
		select {
		case cmd := <-d.cmd:
			switch cmd.kind {
			case cmdSchedule:
				for _, e := range cmd.events {
					ev := e
					ev.ScheduledBeat += cmd.baseBeat
					ev.seq = seqCounter
					seqCounter++
					heap.Push(events, &ev)
				}
			case cmdStartLoop:
				if existing, ok := trackLoop[cmd.loop.TrackID]; ok {
					delete(loops, existing)
				}
				loop := cmd.loop
				loops[loop.ID] = &loop
				trackLoop[loop.TrackID] = loop.ID
			case cmdStopLoop:
				if l, ok := loops[cmd.loopID]; ok {
					delete(trackLoop, l.TrackID)
					delete(loops, cmd.loopID)
					d.mixer.ReleaseTrack(l.TrackID)
					d.silenceMidiTrack(l.TrackID)
				}
			case cmdStopTrack:
				if id, ok := trackLoop[cmd.trackID]; ok {
					delete(loops, id)
					delete(trackLoop, cmd.trackID)
				}
				filterEventsForTrack(events, cmd.trackID)
				d.mixer.ReleaseTrack(cmd.trackID)
				d.silenceMidiTrack(cmd.trackID)
			case cmdStopAll:
				loops = make(map[int]*LoopingPattern)
				trackLoop = make(map[int]int)
				*events = (*events)[:0]
				heap.Init(events)
				for t := 1; t <= 16; t++ {
					d.mixer.ReleaseTrack(t)
					d.silenceMidiTrack(t)
				}
			case cmdSetTrackVolume:
				d.mixer.SetTrackVolume(cmd.trackID, cmd.volume)
			case cmdSetTrackWaveform:
				d.mixer.SetTrackWaveform(cmd.trackID, cmd.wf)
			case cmdTriggerImmediate:
				d.mixer.Play()
				for _, f := range cmd.freqs {
					d.mixer.TriggerNote(cmd.trackID, f)
				}
				for _, dr := range cmd.drums {
					d.mixer.PlayDrum(cmd.trackID, dr)
				}
				d.sendMidiNotes(cmd.trackID, cmd.midiNotes, cmd.velocity)
			case cmdShutdown:
				close(d.stopped)
				if cmd.done != nil {
					close(cmd.done)
				}
				return
			}

		case tick := <-d.ticks:
			d.processTick(tick, events, loops, &lastLoopBeat)
		}
	}
}

func clampMidiByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

func filterEventsForTrack(events *eventHeap, trackID int) {
	kept := (*events)[:0]
	for _, e := range *events {
		if e.TrackID != trackID {
			kept = append(kept, e)
		}
	}
	*events = kept
	heap.Init(events)
}

// processTick implements the tick-processing algorithm: pop-dispatch due
// scheduled events, then, on a beat boundary not yet seen, step every loop.
func (d *Dispatcher) processTick(tick clock.Tick, events *eventHeap, loops map[int]*LoopingPattern, lastLoopBeat *int64) {
	beat := float64(tick.BeatNumber) + tick.BeatFraction
	for events.Len() > 0 {
		top := (*events)[0]
		if top.ScheduledBeat > beat {
			break
		}
		ev := heap.Pop(events).(*ScheduledEvent)
		d.executeEvent(ev)
	}

	if tick.BeatNumber != *lastLoopBeat && tick.TickInBeat == 0 {
		*lastLoopBeat = tick.BeatNumber
		d.stepLoops(loops)
	}
}

func (d *Dispatcher) executeEvent(ev *ScheduledEvent) {
	switch ev.Kind {
	case EventPlayNotes:
		d.mixer.Play()
		for _, f := range ev.Frequencies {
			d.mixer.TriggerNote(ev.TrackID, f)
		}
		for _, dr := range ev.Drums {
			d.mixer.PlayDrum(ev.TrackID, dr)
		}
		d.sendMidiNotes(ev.TrackID, ev.MidiNotes, ev.Velocity)
	case EventSetVolume:
		d.mixer.SetTrackVolume(ev.TrackID, ev.Volume)
	case EventStopTrack:
		d.mixer.ReleaseTrack(ev.TrackID)
		d.silenceMidiTrack(ev.TrackID)
	case EventSetTempo:
		// The dispatcher holds no clock handle, so a scheduled SetTempo
		// event has no effect here; tempo changes reach the clock only
		// through the session, which calls SetBpm directly.
	}
}

// sendMidiNotes turns off whatever this track's last MIDI event left
// sounding, then turns on the new notes. nil midi disables MIDI output
// entirely (synth-only output mode).
func (d *Dispatcher) sendMidiNotes(trackID int, notes []uint8, velocity uint8) {
	if d.midi == nil {
		return
	}
	ch := d.midi.ChannelFor(trackID)
	for _, n := range d.activeMidiNotes[trackID] {
		d.midi.NoteOff(ch, n)
	}
	if velocity == 0 {
		velocity = 100
	}
	for _, n := range notes {
		d.midi.NoteOn(ch, n, velocity)
	}
	if len(notes) == 0 {
		delete(d.activeMidiNotes, trackID)
	} else {
		d.activeMidiNotes[trackID] = notes
	}
}

func (d *Dispatcher) silenceMidiTrack(trackID int) {
	if d.midi == nil {
		return
	}
	ch := d.midi.ChannelFor(trackID)
	for _, n := range d.activeMidiNotes[trackID] {
		d.midi.NoteOff(ch, n)
	}
	delete(d.activeMidiNotes, trackID)
}

func (d *Dispatcher) stepLoops(loops map[int]*LoopingPattern) {
	for _, loop := range loops {
		v, err := interp.EvalExpression(loop.Expr, loop.Env)
		if err != nil {
			fmt.Printf("[dispatcher] loop %d: %v\n", loop.ID, err)
			continue
		}
		cycle := loop.CycleIndex
		events, err := interp.ResolveToStepEvents(v, &cycle)
		if err != nil {
			fmt.Printf("[dispatcher] loop %d: %v\n", loop.ID, err)
			continue
		}
		if len(events) == 0 {
			continue
		}
		idx := loop.StepIndex % len(events)
		ev := events[idx]

		d.mixer.Play()
		freqs := make([]float64, 0, len(ev.Notes))
		midiNotes := make([]uint8, 0, len(ev.Notes))
		velocity := uint8(100)
		for _, n := range ev.Notes {
			freqs = append(freqs, n.Hz)
			midiNotes = append(midiNotes, clampMidiByte(n.MIDI))
			velocity = clampMidiByte(n.Velocity)
		}
		d.mixer.SetTrackNotes(loop.TrackID, freqs, d.mixer.TrackWaveform(loop.TrackID))
		d.sendMidiNotes(loop.TrackID, midiNotes, velocity)
		for _, dr := range ev.Drums {
			d.mixer.PlayDrum(loop.TrackID, dr)
		}

		loop.StepIndex++
		if loop.StepIndex >= len(events) {
			loop.StepIndex = 0
			loop.CycleIndex++
		}
	}
}
