// Package clock is the master tempo source: a single goroutine that ticks
// at 24 pulses per beat and broadcasts Tick values to subscriber channels.
// Grounded on teacher's player/realtime.go playbackLoop (ticker-driven loop,
// command channel, mutex-guarded state) generalized from wall-clock bar/tick
// math to beat-fraction tick broadcast.
package clock

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const ticksPerBeat = 24

// Tick is one pulse of the master clock.
type Tick struct {
	BeatNumber  int64     // whole beats elapsed since Start
	TickInBeat  int       // 0..23, position within the current beat
	BeatFraction float64  // 0.0..1.0, fractional position within the current beat
	Timestamp   time.Time
}

// Clock drives a 24-pulses-per-beat tick stream at a settable tempo.
type Clock struct {
	bpmBits uint64 // atomic, float64 bits

	mu          sync.Mutex
	subscribers []chan Tick
	running     bool

	cmd     chan command
	stopped chan struct{}
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdReset
	cmdSetBpm
	cmdShutdown
)

type command struct {
	kind commandKind
	bpm  float64
	done chan struct{}
}

// New creates a Clock at the given initial tempo (beats per minute).
func New(bpm float64) *Clock {
	c := &Clock{
		cmd:     make(chan command, 8),
		stopped: make(chan struct{}),
	}
	c.setBpm(bpm)
	go c.run()
	return c
}

func (c *Clock) setBpm(bpm float64) {
	atomic.StoreUint64(&c.bpmBits, math.Float64bits(bpm))
}

// Bpm returns the current tempo.
func (c *Clock) Bpm() float64 {
	return math.Float64frombits(atomic.LoadUint64(&c.bpmBits))
}

// SetBpm changes the tempo. Takes effect at the next tick boundary.
func (c *Clock) SetBpm(bpm float64) {
	c.cmd <- command{kind: cmdSetBpm, bpm: bpm}
}

// Start begins (or resumes) ticking.
func (c *Clock) Start() {
	c.cmd <- command{kind: cmdStart}
}

// Stop halts ticking without resetting beat position.
func (c *Clock) Stop() {
	c.cmd <- command{kind: cmdStop}
}

// Reset zeroes the beat counter.
func (c *Clock) Reset() {
	c.cmd <- command{kind: cmdReset}
}

// Shutdown stops the clock goroutine permanently and waits for it to exit.
func (c *Clock) Shutdown() {
	done := make(chan struct{})
	c.cmd <- command{kind: cmdShutdown, done: done}
	<-done
}

// Subscribe registers a channel to receive ticks. The channel should be
// buffered; a full subscriber channel causes that tick to be dropped for it
// rather than blocking the clock.
func (c *Clock) Subscribe(ch chan Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, ch)
}

func (c *Clock) broadcast(t Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- t:
		default:
		}
	}
}

// busySpinThreshold is how far from the deadline the clock switches from
// sleeping to a tight spin loop, trading CPU for sub-millisecond accuracy.
const busySpinThreshold = 500 * time.Microsecond

func (c *Clock) run() {
	var running bool
	var beatNumber int64
	var tickInBeat int
	var deadline time.Time

	for {
		select {
		case cmd := <-c.cmd:
			switch cmd.kind {
			case cmdStart:
				if !running {
					running = true
					deadline = time.Now()
				}
			case cmdStop:
				running = false
			case cmdReset:
				beatNumber = 0
				tickInBeat = 0
			case cmdSetBpm:
				c.setBpm(cmd.bpm)
			case cmdShutdown:
				close(c.stopped)
				if cmd.done != nil {
					close(cmd.done)
				}
				return
			}
			continue
		default:
		}

		if !running {
			time.Sleep(time.Millisecond)
			continue
		}

		now := time.Now()
		remaining := deadline.Sub(now)
		if remaining > busySpinThreshold {
			time.Sleep(remaining - busySpinThreshold)
			continue
		}
		for time.Now().Before(deadline) {
			// busy-spin the last stretch for tighter timing than the
			// scheduler's sleep granularity allows.
		}

		t := Tick{
			BeatNumber:   beatNumber,
			TickInBeat:   tickInBeat,
			BeatFraction: float64(tickInBeat) / ticksPerBeat,
			Timestamp:    time.Now(),
		}
		c.broadcast(t)

		tickInBeat++
		if tickInBeat >= ticksPerBeat {
			tickInBeat = 0
			beatNumber++
		}
		tickDuration := time.Duration(60.0 / c.Bpm() / ticksPerBeat * float64(time.Second))
		deadline = deadline.Add(tickDuration)
	}
}
