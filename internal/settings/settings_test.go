package settings_test

import (
	"testing"

	"codeberg.org/wrenvik/dutymond/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, settings.Default().Validate())
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*settings.Settings)
	}{
		{"duty threshold zero", func(s *settings.Settings) { s.DutyLowPct = 0 }},
		{"duty threshold above 99", func(s *settings.Settings) { s.DutyHighPct = 100 }},
		{"duty threshold inverted", func(s *settings.Settings) { s.DutyLowPct = 80; s.DutyHighPct = 20 }},
		{"polarity out of range", func(s *settings.Settings) { s.Polarity = 2 }},
		{"period below 100", func(s *settings.Settings) { s.PeriodMinUs = 99 }},
		{"period above 65000", func(s *settings.Settings) { s.PeriodMaxUs = 65001 }},
		{"period inverted", func(s *settings.Settings) { s.PeriodMinUs = 2000; s.PeriodMaxUs = 1000 }},
		{"duty tolerance zero", func(s *settings.Settings) { s.DutyMin = 0 }},
		{"duty tolerance above 499", func(s *settings.Settings) { s.DutyMax = 500 }},
		{"duty tolerance inverted", func(s *settings.Settings) { s.DutyMin = 400; s.DutyMax = 100 }},
		{"error count above 255", func(s *settings.Settings) { s.MaxErrorCount = 256 }},
		{"error duration below 10", func(s *settings.Settings) { s.MinErrorMs = 9 }},
		{"error duration above 65000", func(s *settings.Settings) { s.MinErrorMs = 65001 }},
		{"baud not enumerated", func(s *settings.Settings) { s.BaudRate = 1000 }},
		{"decimal separator empty", func(s *settings.Settings) { s.DecimalSep = "" }},
		{"field separator too long", func(s *settings.Settings) { s.FieldSep = ";;" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := settings.Default()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAcceptsBoundaries(t *testing.T) {
	cfg := settings.Default()
	cfg.DutyLowPct = 1
	cfg.DutyHighPct = 99
	cfg.PeriodMinUs = 100
	cfg.PeriodMaxUs = 65000
	cfg.DutyMin = 1
	cfg.DutyMax = 499
	cfg.MaxErrorCount = settings.ErrorCountDisabled
	cfg.MinErrorMs = 10
	assert.NoError(t, cfg.Validate())
}

func TestValidBaudRate(t *testing.T) {
	for _, rate := range settings.BaudRates {
		assert.True(t, settings.ValidBaudRate(rate))
	}
	assert.False(t, settings.ValidBaudRate(1000))
	assert.False(t, settings.ValidBaudRate(0))
}
