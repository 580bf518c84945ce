// Package capture turns raw edge events into period/duty samples. HandleEdge
// runs in the edge-event context and must stay O(1) and allocation-free.
package capture

// Sample is one measurement of a completed signal period. Immutable after
// creation.
type Sample struct {
	PeriodUs     uint32 // full period, microseconds
	HighUs       uint32 // high-phase duration, microseconds
	DutyPermille uint16 // HighUs * 1000 / PeriodUs, truncated
}

// Sink receives completed samples without blocking.
type Sink interface {
	TryPush(Sample) bool
}

// Capture accumulates edge timing for one input line. Not safe for use from
// more than one goroutine; the gpio watcher serializes edge delivery.
type Capture struct {
	sink     Sink
	lastEdge uint32
	highUs   uint32
	haveEdge bool
	haveHigh bool
	dropped  uint64
}

// New creates a Capture pushing completed samples into sink.
func New(sink Sink) *Capture {
	return &Capture{sink: sink}
}

// HandleEdge consumes one transition of the input line. level is the line
// level after the edge, micros the event timestamp. Timestamps wrap at
// 2^32 µs; unsigned subtraction keeps durations correct across the wrap.
//
// An edge into the high level closes the low phase and, once a high phase
// from the same period is known, completes a period and emits a sample. An
// edge into the low level closes the high phase only.
func (c *Capture) HandleEdge(level bool, micros uint32) {
	d := micros - c.lastEdge
	c.lastEdge = micros

	if !c.haveEdge {
		// first edge after start or reset: no duration yet
		c.haveEdge = true
		return
	}

	if !level {
		c.highUs = d
		c.haveHigh = true
		return
	}

	// rising edge: d is the low-phase duration
	if !c.haveHigh {
		return
	}
	c.haveHigh = false

	period := c.highUs + d
	if period == 0 {
		return
	}

	s := Sample{
		PeriodUs:     period,
		HighUs:       c.highUs,
		DutyPermille: uint16(uint64(c.highUs) * 1000 / uint64(period)),
	}
	if !c.sink.TryPush(s) {
		c.dropped++
	}
}

// Reset discards partial phase state. The next sample is emitted only after
// a full period of both levels has been observed again.
func (c *Capture) Reset() {
	c.haveEdge = false
	c.haveHigh = false
}

// Dropped returns the number of samples discarded on a full queue.
func (c *Capture) Dropped() uint64 {
	return c.dropped
}
