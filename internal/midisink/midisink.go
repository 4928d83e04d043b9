// Package midisink is the MIDI output stage: a command-driven goroutine
// that owns a gomidi/v2 output port and tracks active notes so it can
// panic-silence them on shutdown. Grounded on iltempo-interplay's midi/midi.go
// (midi.OutPort/SendTo wiring, NoteOn/NoteOff helpers) and the teacher's
// command-channel/goroutine-join shutdown style from player/realtime.go.
package midisink

import (
	"fmt"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// ChannelPolicy decides which MIDI channel a track's notes go out on.
type ChannelPolicy int

const (
	// PerTrack maps track N to MIDI channel N mod 16.
	PerTrack ChannelPolicy = iota
	// Fixed routes every track to a single configured channel.
	Fixed
)

type commandKind int

const (
	cmdConnect commandKind = iota
	cmdDisconnect
	cmdNoteOn
	cmdNoteOff
	cmdControlChange
	cmdAllNotesOff
	cmdShutdown
)

type command struct {
	kind     commandKind
	port     int
	channel  uint8
	note     uint8
	velocity uint8
	control  uint8
	value    uint8
}

type activeKey struct {
	channel uint8
	note    uint8
}

// Sink owns a MIDI output connection and serializes all access to it
// through a single command goroutine.
type Sink struct {
	cmd     chan command
	stopped chan struct{}

	policy        ChannelPolicy
	fixedChannel  uint8
}

// New creates a Sink with the given channel-mapping policy.
func New(policy ChannelPolicy, fixedChannel uint8) *Sink {
	s := &Sink{
		cmd:          make(chan command, 64),
		stopped:      make(chan struct{}),
		policy:       policy,
		fixedChannel: fixedChannel,
	}
	go s.run()
	return s
}

// ListPorts returns the names of available MIDI output ports.
func ListPorts() []string {
	ports := midi.GetOutPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

// ChannelFor resolves the output MIDI channel for a track under the sink's
// policy.
func (s *Sink) ChannelFor(trackID int) uint8 {
	if s.policy == Fixed {
		return s.fixedChannel
	}
	return uint8(((trackID % 16) + 16) % 16)
}

// Connect opens the given output port index.
func (s *Sink) Connect(portIndex int) {
	s.cmd <- command{kind: cmdConnect, port: portIndex}
}

// Disconnect closes the current output port, if any.
func (s *Sink) Disconnect() {
	s.cmd <- command{kind: cmdDisconnect}
}

// NoteOn sends a Note On message.
func (s *Sink) NoteOn(channel, note, velocity uint8) {
	s.cmd <- command{kind: cmdNoteOn, channel: channel, note: note, velocity: velocity}
}

// NoteOff sends a Note Off message.
func (s *Sink) NoteOff(channel, note uint8) {
	s.cmd <- command{kind: cmdNoteOff, channel: channel, note: note}
}

// ControlChange sends a Control Change message.
func (s *Sink) ControlChange(channel, control, value uint8) {
	s.cmd <- command{kind: cmdControlChange, channel: channel, control: control, value: value}
}

// AllNotesOff sends Note Off for every note this sink believes is active,
// then a CC 123 (all notes off) on every channel for safety.
func (s *Sink) AllNotesOff() {
	s.cmd <- command{kind: cmdAllNotesOff}
}

// Shutdown silences all notes, closes the port, and stops the goroutine.
// Waits up to 200ms for the goroutine to exit before returning.
func (s *Sink) Shutdown() {
	s.cmd <- command{kind: cmdShutdown}
	select {
	case <-s.stopped:
	case <-time.After(200 * time.Millisecond):
	}
}

func (s *Sink) run() {
	var port drivers.Out
	var send func(midi.Message) error
	active := make(map[activeKey]bool)

	silence := func() {
		if send == nil {
			return
		}
		for k := range active {
			send(midi.NoteOff(k.channel, k.note))
		}
		active = make(map[activeKey]bool)
		for ch := uint8(0); ch < 16; ch++ {
			send(midi.ControlChange(ch, 123, 0))
		}
	}

	defer close(s.stopped)
	for cmd := range s.cmd {
		switch cmd.kind {
		case cmdConnect:
			p, err := midi.OutPort(cmd.port)
			if err != nil {
				fmt.Printf("[midisink] failed to open port %d: %v\n", cmd.port, err)
				continue
			}
			sendFn, err := midi.SendTo(p)
			if err != nil {
				fmt.Printf("[midisink] failed to bind port %d: %v\n", cmd.port, err)
				continue
			}
			port, send = p, sendFn
		case cmdDisconnect:
			silence()
			if port != nil {
				port.Close()
			}
			port, send = nil, nil
		case cmdNoteOn:
			if send == nil {
				continue
			}
			if err := send(midi.NoteOn(cmd.channel, cmd.note, cmd.velocity)); err != nil {
				fmt.Printf("[midisink] note on failed: %v\n", err)
				continue
			}
			active[activeKey{cmd.channel, cmd.note}] = true
		case cmdNoteOff:
			if send == nil {
				continue
			}
			send(midi.NoteOff(cmd.channel, cmd.note))
			delete(active, activeKey{cmd.channel, cmd.note})
		case cmdControlChange:
			if send == nil {
				continue
			}
			send(midi.ControlChange(cmd.channel, cmd.control, cmd.value))
		case cmdAllNotesOff:
			silence()
		case cmdShutdown:
			silence()
			if port != nil {
				port.Close()
			}
			return
		}
	}
}
