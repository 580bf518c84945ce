package monitor_test

import (
	"testing"
	"time"

	"codeberg.org/wrenvik/dutymond/internal/capture"
	"codeberg.org/wrenvik/dutymond/internal/gpio"
	"codeberg.org/wrenvik/dutymond/internal/monitor"
	"codeberg.org/wrenvik/dutymond/internal/queue"
	"codeberg.org/wrenvik/dutymond/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rig struct {
	cfg     settings.Settings
	ring    *queue.Ring[capture.Sample]
	primary *gpio.FakeOutput
	errOut  *gpio.FakeOutput
	mon     *monitor.Monitor
	now     time.Time
}

func newRig(t *testing.T, mutate func(*settings.Settings)) *rig {
	t.Helper()
	r := &rig{
		cfg:     settings.Default(),
		ring:    queue.New[capture.Sample](10),
		primary: gpio.NewFakeOutput(),
		errOut:  gpio.NewFakeOutput(),
		now:     time.Unix(1000, 0),
	}
	if mutate != nil {
		mutate(&r.cfg)
	}
	require.NoError(t, r.cfg.Validate())
	r.mon = monitor.New(&r.cfg, r.ring, r.primary, r.errOut, r.now)

	return r
}

// tick advances the clock and runs one evaluation cycle.
func (r *rig) tick(d time.Duration) (monitor.Snapshot, bool) {
	r.now = r.now.Add(d)

	return r.mon.Tick(r.now)
}

func (r *rig) push(periodUs, highUs uint32) {
	r.ring.TryPush(capture.Sample{
		PeriodUs:     periodUs,
		HighUs:       highUs,
		DutyPermille: uint16(uint64(highUs) * 1000 / uint64(periodUs)),
	})
}

func TestPrimaryOutputThresholds(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.DutyLowPct = 20
		s.DutyHighPct = 80
		s.Polarity = 0
	})

	// duty above high threshold: inverted polarity value
	r.push(1000, 900)
	_, evaluated := r.tick(time.Millisecond)
	require.True(t, evaluated)
	assert.True(t, r.primary.Active)

	// inside the hysteresis band: unchanged
	r.push(1000, 500)
	r.tick(time.Millisecond)
	assert.True(t, r.primary.Active, "hysteresis band must not change the output")

	// below low threshold: polarity value
	r.push(1000, 100)
	r.tick(time.Millisecond)
	assert.False(t, r.primary.Active)
}

func TestPrimaryOutputPolarityInverted(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.Polarity = 1
	})

	r.push(1000, 900)
	r.tick(time.Millisecond)
	assert.False(t, r.primary.Active)

	r.push(1000, 100)
	r.tick(time.Millisecond)
	assert.True(t, r.primary.Active)
}

func TestErrorAssertsAfterDebounce(t *testing.T) {
	const maxErrors = 3
	r := newRig(t, func(s *settings.Settings) {
		s.MaxErrorCount = maxErrors
		s.DutyMin = 100
		s.DutyMax = 400
	})

	// folded duty 450 is out of [100,400]
	for i := 0; i < maxErrors; i++ {
		r.push(1000, 450)
		r.tick(time.Millisecond)
		assert.False(t, r.errOut.Active, "error must not assert before the debounce count is exceeded")
	}

	r.push(1000, 450)
	r.tick(time.Millisecond)
	assert.True(t, r.errOut.Active, "error asserts on the (maxErrors+1)th consecutive violation")
}

func TestErrorCounterResets(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.MaxErrorCount = 2
		s.DutyMin = 100
		s.DutyMax = 400
	})

	r.push(1000, 450)
	r.tick(time.Millisecond)
	r.push(1000, 450)
	r.tick(time.Millisecond)

	// an in-range sample resets the counter
	r.push(1000, 300)
	r.tick(time.Millisecond)

	r.push(1000, 450)
	r.tick(time.Millisecond)
	r.push(1000, 450)
	r.tick(time.Millisecond)
	assert.False(t, r.errOut.Active, "counter must restart after an in-range sample")
}

func TestErrorDisabledSentinel(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.MaxErrorCount = settings.ErrorCountDisabled
		s.DutyMin = 100
		s.DutyMax = 400
	})

	for i := 0; i < 300; i++ {
		r.push(1000, 450)
		r.tick(time.Millisecond)
	}
	assert.False(t, r.errOut.Active, "sentinel 255 must never assert the error output")
}

func TestErrorMinimumDuration(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.MaxErrorCount = 0
		s.MinErrorMs = 100
		s.DutyMin = 100
		s.DutyMax = 400
	})

	r.push(1000, 450)
	r.tick(time.Millisecond)
	require.True(t, r.errOut.Active)

	// fault clears, but the minimum duration has not elapsed
	r.push(1000, 300)
	r.tick(50 * time.Millisecond)
	assert.True(t, r.errOut.Active, "error must stay asserted for the minimum duration")

	r.push(1000, 300)
	r.tick(60 * time.Millisecond)
	assert.False(t, r.errOut.Active, "error releases after the minimum duration once fault-free")
}

func TestPeriodTolerance(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.MaxErrorCount = 0
		s.PeriodMinUs = 15000
		s.PeriodMaxUs = 25000
	})

	r.push(30000, 9000)
	r.tick(time.Millisecond)
	assert.True(t, r.errOut.Active)
}

func TestWatchdogSynthesizesZeroSample(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.MaxErrorCount = 0
	})

	// within the timeout: no evaluation
	_, evaluated := r.tick(100 * time.Millisecond)
	assert.False(t, evaluated)

	// past the timeout: exactly one zero-sample evaluation
	snap, evaluated := r.tick(101 * time.Millisecond)
	require.True(t, evaluated)
	assert.Zero(t, snap.PeriodUs)
	assert.Zero(t, snap.DutyPermille)
	assert.True(t, r.errOut.Active, "zero signal is out of every tolerance window")

	// re-armed: no second synthesis inside the next window
	_, evaluated = r.tick(50 * time.Millisecond)
	assert.False(t, evaluated, "watchdog must fire once per timeout window")

	_, evaluated = r.tick(160 * time.Millisecond)
	assert.True(t, evaluated)
}

func TestWatchdogReclaimedBySignal(t *testing.T) {
	r := newRig(t, nil)

	r.push(20000, 10000)
	_, evaluated := r.tick(190 * time.Millisecond)
	require.True(t, evaluated)

	// a fresh sample re-arms the watchdog
	_, evaluated = r.tick(190 * time.Millisecond)
	assert.False(t, evaluated)
}

func TestFoldedDuty(t *testing.T) {
	r := newRig(t, func(s *settings.Settings) {
		s.DutyMin = 100
		s.DutyMax = 400
		s.MaxErrorCount = 0
	})

	// duty 700 folds to 300: inside the window
	r.push(1000, 700)
	snap, _ := r.tick(time.Millisecond)
	assert.Equal(t, 300, snap.FoldedDuty)
	assert.False(t, r.errOut.Active)

	// duty 950 folds to 50: outside
	r.push(1000, 950)
	snap, _ = r.tick(time.Millisecond)
	assert.Equal(t, 50, snap.FoldedDuty)
	assert.True(t, r.errOut.Active)
}

func TestMeasurementAccessors(t *testing.T) {
	r := newRig(t, nil)

	r.push(20076, 6312)
	r.tick(time.Millisecond)

	assert.Equal(t, 314, r.mon.DutyPermille())
	assert.Equal(t, uint32(6312), r.mon.HighMicros())
	assert.Equal(t, uint32(20076), r.mon.PeriodMicros())
}
