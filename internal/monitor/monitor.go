// Package monitor consumes period/duty samples and drives the two outputs:
// duty-threshold control with hysteresis on the primary output, tolerance
// evaluation with consecutive-error debouncing on the error output, and a
// signal-loss watchdog.
package monitor

import (
	"time"

	"codeberg.org/wrenvik/dutymond/internal/capture"
	"codeberg.org/wrenvik/dutymond/internal/gpio"
	"codeberg.org/wrenvik/dutymond/internal/logger"
	"codeberg.org/wrenvik/dutymond/internal/queue"
	"codeberg.org/wrenvik/dutymond/internal/settings"
)

// SignalTimeout is how long the watchdog waits for a sample before
// synthesizing a zero-signal evaluation.
const SignalTimeout = 200 * time.Millisecond

// listingInterval paces the optional frequency/duty listing line. The
// listing is non-critical instrumentation and must never delay sampling.
const listingInterval = 500 * time.Millisecond

// Monitor evaluates samples against the live settings. All methods run in
// the main loop; only the queue is shared with the capture context.
type Monitor struct {
	cfg     *settings.Settings
	q       *queue.Ring[capture.Sample]
	primary gpio.OutputPin
	errOut  gpio.OutputPin

	last          capture.Sample
	foldedDuty    int
	dutyErrors    int
	periodErrors  int
	primaryActive bool
	errorActive   bool
	lastSampleAt  time.Time
	errorSince    time.Time
	lastListing   time.Time
}

// Snapshot is the observable monitor state after one evaluation.
type Snapshot struct {
	Timestamp     time.Time
	PeriodUs      uint32
	HighUs        uint32
	DutyPermille  int
	FoldedDuty    int
	DutyErrors    int
	PeriodErrors  int
	PrimaryActive bool
	ErrorActive   bool
}

// New creates a Monitor. now arms the signal-loss watchdog.
func New(cfg *settings.Settings, q *queue.Ring[capture.Sample], primary, errOut gpio.OutputPin, now time.Time) *Monitor {
	return &Monitor{
		cfg:          cfg,
		q:            q,
		primary:      primary,
		errOut:       errOut,
		lastSampleAt: now,
	}
}

// Tick runs one evaluation cycle: drain at most one sample, fall back to the
// watchdog when the signal is gone, then evaluate. It reports whether an
// evaluation happened and the state afterwards.
func (m *Monitor) Tick(now time.Time) (Snapshot, bool) {
	evaluate := false

	if s, ok := m.q.TryPop(); ok {
		m.last = s
		m.lastSampleAt = now
		evaluate = true
	} else if now.Sub(m.lastSampleAt) > SignalTimeout {
		// signal lost: evaluate a zero sample, re-arming so the
		// synthesis fires once per timeout window
		m.last = capture.Sample{}
		m.lastSampleAt = now
		evaluate = true
		logger.Debug().Msg("no sample within watchdog timeout, synthesizing zero signal")
	}

	if !evaluate {
		return m.snapshot(now), false
	}

	m.evaluate(now)

	return m.snapshot(now), true
}

func (m *Monitor) evaluate(now time.Time) {
	duty := int(m.last.DutyPermille)

	m.controlPrimary(duty)

	faultFree := true
	inWindow := m.dutyErrors > 0 || m.periodErrors > 0

	folded := duty
	if folded > 500 {
		folded = 1000 - duty
	}
	m.foldedDuty = folded

	if folded < m.cfg.DutyMin || folded > m.cfg.DutyMax {
		m.dutyErrors++
		faultFree = false
		if !inWindow {
			m.errorSince = now
			inWindow = true
		}
		if m.exceeded(m.dutyErrors) {
			m.setError(true)
			logger.Warn().
				Int("folded_duty", folded).
				Int("duty_min", m.cfg.DutyMin).
				Int("duty_max", m.cfg.DutyMax).
				Int("consecutive", m.dutyErrors).
				Msg("duty cycle out of tolerance")
		}
	} else {
		m.dutyErrors = 0
	}

	period := int(m.last.PeriodUs)
	if period < m.cfg.PeriodMinUs || period > m.cfg.PeriodMaxUs {
		m.periodErrors++
		faultFree = false
		if !inWindow {
			m.errorSince = now
		}
		if m.exceeded(m.periodErrors) {
			m.setError(true)
			logger.Warn().
				Int("period_us", period).
				Int("period_min_us", m.cfg.PeriodMinUs).
				Int("period_max_us", m.cfg.PeriodMaxUs).
				Int("consecutive", m.periodErrors).
				Msg("period out of tolerance")
		}
	} else {
		m.periodErrors = 0
	}

	// The error output stays asserted for at least MinErrorMs after the
	// fault window began, even when the fault itself was transient.
	if faultFree && m.dutyErrors == 0 && m.periodErrors == 0 && m.errorActive {
		if now.Sub(m.errorSince) > time.Duration(m.cfg.MinErrorMs)*time.Millisecond {
			m.setError(false)
		}
	}

	m.listing(now)
}

// controlPrimary applies the duty thresholds with a hysteresis band: above
// the high threshold the output takes the inverted polarity value, below the
// low threshold the polarity value, in between it is left alone.
func (m *Monitor) controlPrimary(duty int) {
	polarity := m.cfg.Polarity == 1
	switch {
	case duty > 10*m.cfg.DutyHighPct:
		m.setPrimary(!polarity)
	case duty < 10*m.cfg.DutyLowPct:
		m.setPrimary(polarity)
	}
}

func (m *Monitor) exceeded(count int) bool {
	if m.cfg.MaxErrorCount == settings.ErrorCountDisabled {
		return false
	}

	return count > m.cfg.MaxErrorCount
}

func (m *Monitor) setPrimary(active bool) {
	if m.primaryActive == active {
		return
	}
	m.primaryActive = active
	if err := m.primary.Set(active); err != nil {
		logger.Error().Err(err).Msg("failed to drive primary output")
	}
}

func (m *Monitor) setError(active bool) {
	if m.errorActive == active {
		return
	}
	m.errorActive = active
	if err := m.errOut.Set(active); err != nil {
		logger.Error().Err(err).Msg("failed to drive error output")
	}
}

func (m *Monitor) listing(now time.Time) {
	if !m.cfg.Listing || now.Sub(m.lastListing) < listingInterval {
		return
	}
	m.lastListing = now

	freq := 0
	if m.last.PeriodUs > 0 {
		freq = int(1e6 / uint64(m.last.PeriodUs))
	}
	logger.Info().
		Int("frequency_hz", freq).
		Int("duty_permille", int(m.last.DutyPermille)).
		Msg("signal")
}

func (m *Monitor) snapshot(now time.Time) Snapshot {
	return Snapshot{
		Timestamp:     now,
		PeriodUs:      m.last.PeriodUs,
		HighUs:        m.last.HighUs,
		DutyPermille:  int(m.last.DutyPermille),
		FoldedDuty:    m.foldedDuty,
		DutyErrors:    m.dutyErrors,
		PeriodErrors:  m.periodErrors,
		PrimaryActive: m.primaryActive,
		ErrorActive:   m.errorActive,
	}
}

// DutyPermille returns the duty of the last accepted sample.
func (m *Monitor) DutyPermille() int {
	return int(m.last.DutyPermille)
}

// HighMicros returns the high-phase duration of the last accepted sample.
func (m *Monitor) HighMicros() uint32 {
	return m.last.HighUs
}

// PeriodMicros returns the period of the last accepted sample.
func (m *Monitor) PeriodMicros() uint32 {
	return m.last.PeriodUs
}
