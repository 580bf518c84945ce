package settings

import (
	"fmt"

	"codeberg.org/wrenvik/dutymond/internal/errors"
)

// Version is the tag written into the persisted record. Bump it whenever the
// field layout changes; a mismatch on load falls back to factory defaults.
const Version = "dm-3"

// ErrorCountDisabled is the sentinel for MaxErrorCount that disables the
// error output entirely.
const ErrorCountDisabled = 255

// BaudRates is the enumerated set of accepted serial speed classes.
var BaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// Settings is the device configuration reachable over the command protocol.
// Every numeric field lies within its declared range at all times; updates
// are validated as a whole and rejected atomically.
type Settings struct {
	DutyLowPct    int    `yaml:"duty_low_pct"`    // 1..99, <= DutyHighPct
	DutyHighPct   int    `yaml:"duty_high_pct"`   // 1..99
	Polarity      int    `yaml:"polarity"`        // 0 or 1
	PeriodMinUs   int    `yaml:"period_min_us"`   // 100..65000, <= PeriodMaxUs
	PeriodMaxUs   int    `yaml:"period_max_us"`   // 100..65000
	DutyMin       int    `yaml:"duty_min"`        // 1..499 folded permille, <= DutyMax
	DutyMax       int    `yaml:"duty_max"`        // 1..499
	MaxErrorCount int    `yaml:"max_error_count"` // 0..255, 255 disables
	MinErrorMs    int    `yaml:"min_error_ms"`    // 10..65000
	BaudRate      int    `yaml:"baud_rate"`       // one of BaudRates
	Listing       bool   `yaml:"listing"`
	DecimalSep    string `yaml:"decimal_sep"` // single character
	FieldSep      string `yaml:"field_sep"`   // single character
}

// Default returns the factory settings.
func Default() Settings {
	return Settings{
		DutyLowPct:    20,
		DutyHighPct:   80,
		Polarity:      0,
		PeriodMinUs:   100,
		PeriodMaxUs:   65000,
		DutyMin:       1,
		DutyMax:       499,
		MaxErrorCount: 3,
		MinErrorMs:    1000,
		BaudRate:      9600,
		Listing:       false,
		DecimalSep:    ",",
		FieldSep:      ";",
	}
}

func inRange(v, lo, hi int) bool {
	return v >= lo && v <= hi
}

// ValidBaudRate reports whether rate is one of the accepted speed classes.
func ValidBaudRate(rate int) bool {
	for _, r := range BaudRates {
		if r == rate {
			return true
		}
	}

	return false
}

// Validate checks every field against its declared range.
func (s Settings) Validate() error {
	switch {
	case !inRange(s.DutyLowPct, 1, 99) || !inRange(s.DutyHighPct, 1, 99):
		return errors.WithData(ErrOutOfRange, "duty threshold out of 1..99")
	case s.DutyLowPct > s.DutyHighPct:
		return errors.WithData(ErrOutOfRange, "duty threshold low > high")
	case s.Polarity != 0 && s.Polarity != 1:
		return errors.WithData(ErrOutOfRange, "polarity must be 0 or 1")
	case !inRange(s.PeriodMinUs, 100, 65000) || !inRange(s.PeriodMaxUs, 100, 65000):
		return errors.WithData(ErrOutOfRange, "period tolerance out of 100..65000")
	case s.PeriodMinUs > s.PeriodMaxUs:
		return errors.WithData(ErrOutOfRange, "period tolerance min > max")
	case !inRange(s.DutyMin, 1, 499) || !inRange(s.DutyMax, 1, 499):
		return errors.WithData(ErrOutOfRange, "duty tolerance out of 1..499")
	case s.DutyMin > s.DutyMax:
		return errors.WithData(ErrOutOfRange, "duty tolerance min > max")
	case !inRange(s.MaxErrorCount, 0, 255):
		return errors.WithData(ErrOutOfRange, "max error count out of 0..255")
	case !inRange(s.MinErrorMs, 10, 65000):
		return errors.WithData(ErrOutOfRange, "min error duration out of 10..65000")
	case !ValidBaudRate(s.BaudRate):
		return errors.WithData(ErrOutOfRange, fmt.Sprintf("baud rate %d not in %v", s.BaudRate, BaudRates))
	case len(s.DecimalSep) != 1 || len(s.FieldSep) != 1:
		return errors.WithData(ErrOutOfRange, "separators must be single characters")
	}

	return nil
}
