package capture_test

import (
	"math"
	"testing"

	"codeberg.org/wrenvik/dutymond/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	samples []capture.Sample
	full    bool
}

func (s *recordingSink) TryPush(v capture.Sample) bool {
	if s.full {
		return false
	}
	s.samples = append(s.samples, v)

	return true
}

// feedPeriods plays a steady rectangular signal starting at a rising edge:
// high for highUs, low for periodUs-highUs, repeated.
func feedPeriods(c *capture.Capture, start uint32, periodUs, highUs uint32, periods int) {
	now := start
	c.HandleEdge(true, now)
	for i := 0; i < periods; i++ {
		now += highUs
		c.HandleEdge(false, now)
		now += periodUs - highUs
		c.HandleEdge(true, now)
	}
}

func TestDutyComputation(t *testing.T) {
	sink := &recordingSink{}
	c := capture.New(sink)

	feedPeriods(c, 1000, 20076, 6312, 1)

	require.Len(t, sink.samples, 1)
	s := sink.samples[0]
	assert.Equal(t, uint32(20076), s.PeriodUs)
	assert.Equal(t, uint32(6312), s.HighUs)
	assert.Equal(t, uint16(6312*1000/20076), s.DutyPermille)
}

func TestOneSamplePerPeriod(t *testing.T) {
	sink := &recordingSink{}
	c := capture.New(sink)

	feedPeriods(c, 0, 1000, 300, 50)

	assert.Len(t, sink.samples, 50)
	for _, s := range sink.samples {
		assert.Equal(t, uint16(300), s.DutyPermille)
	}
}

func TestNoSampleBeforeFullPeriod(t *testing.T) {
	sink := &recordingSink{}
	c := capture.New(sink)

	// first two edges: only one phase duration known
	c.HandleEdge(true, 100)
	c.HandleEdge(false, 400)
	assert.Empty(t, sink.samples)

	// third edge completes the first full period
	c.HandleEdge(true, 1100)
	assert.Len(t, sink.samples, 1)
}

func TestNoSampleAfterReset(t *testing.T) {
	sink := &recordingSink{}
	c := capture.New(sink)

	feedPeriods(c, 0, 1000, 500, 2)
	require.Len(t, sink.samples, 2)

	c.Reset()

	// after a reset the next rising edge must not pair with stale state
	c.HandleEdge(true, 10000)
	c.HandleEdge(false, 10500)
	c.HandleEdge(true, 11000)
	assert.Len(t, sink.samples, 3, "one new sample after a fresh full period")
}

func TestTimestampWraparound(t *testing.T) {
	sink := &recordingSink{}
	c := capture.New(sink)

	start := uint32(math.MaxUint32 - 5000)
	feedPeriods(c, start, 20000, 5000, 1)

	require.Len(t, sink.samples, 1)
	s := sink.samples[0]
	assert.Equal(t, uint32(20000), s.PeriodUs)
	assert.Equal(t, uint32(5000), s.HighUs)
	assert.Equal(t, uint16(250), s.DutyPermille)
}

func TestZeroPeriodGuard(t *testing.T) {
	sink := &recordingSink{}
	c := capture.New(sink)

	c.HandleEdge(true, 100)
	c.HandleEdge(false, 100)
	c.HandleEdge(true, 100)
	assert.Empty(t, sink.samples, "a zero-length period must never divide")
}

func TestDroppedCount(t *testing.T) {
	sink := &recordingSink{full: true}
	c := capture.New(sink)

	feedPeriods(c, 0, 1000, 500, 3)

	assert.Empty(t, sink.samples)
	assert.Equal(t, uint64(3), c.Dropped())
}

func TestDutyTruncates(t *testing.T) {
	sink := &recordingSink{}
	c := capture.New(sink)

	// 1/3 duty: 333.33... permille must truncate to 333
	feedPeriods(c, 0, 3000, 1000, 1)

	require.Len(t, sink.samples, 1)
	assert.Equal(t, uint16(333), sink.samples[0].DutyPermille)
}
