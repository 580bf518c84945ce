package protocol

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"codeberg.org/wrenvik/dutymond/internal/logger"
	"codeberg.org/wrenvik/dutymond/internal/settings"
)

// Identity is the device identification printed by *idn?.
const Identity = "dutymond"

const term = "\r\n"

// Measurements exposes the most recent sample values for the query commands.
type Measurements interface {
	DutyPermille() int
	HighMicros() uint32
	PeriodMicros() uint32
}

// Handler dispatches complete command lines. Settings are mutated only here,
// in the main loop context, and every accepted mutation is persisted before
// it is confirmed.
type Handler struct {
	cfg    *settings.Settings
	store  settings.Store
	meas   Measurements
	out    io.Writer
	reopen func(baud int) error
}

// NewHandler creates a Handler writing responses to out.
func NewHandler(cfg *settings.Settings, store settings.Store, meas Measurements, out io.Writer) *Handler {
	return &Handler{cfg: cfg, store: store, meas: meas, out: out}
}

// OnBaudChange registers a hook invoked after an accepted serial speed
// change, with the new rate.
func (h *Handler) OnBaudChange(fn func(baud int) error) {
	h.reopen = fn
}

// measurement is one chainable query command form.
type measurement struct {
	form  string
	value func(*Handler) string
}

// measurementForms are the only commands that may participate in a chain.
// Each consumes its own fixed-length prefix of the line.
var measurementForms = []measurement{
	{":measure:pwidth?", (*Handler).pulseWidth},
	{":meas:pwid?", (*Handler).pulseWidth},
	{":measure:period?", (*Handler).period},
	{":meas:per?", (*Handler).period},
	{":fetch?", (*Handler).duty},
	{":fetc?", (*Handler).duty},
}

// HandleLine dispatches one normalized line. Measurement queries may chain:
// each consumes its token and the remainder is matched again, the collected
// values are joined with the field separator and one terminator. Any other
// command owns the whole line; one that appears mid-chain is a protocol
// error rather than a silent guess.
func (h *Handler) HandleLine(line string) {
	if line == "" {
		return
	}

	rest := line
	var values []string
	for {
		form := matchMeasurement(rest)
		if form == nil {
			if len(values) > 0 {
				h.printf("%s: chained commands must be measurement queries%s", rest, term)
				h.helpHint()
				return
			}
			h.dispatchSingle(line)
			return
		}

		values = append(values, form.value(h))
		rest = strings.TrimPrefix(rest[len(form.form):], " ")
		if rest == "" {
			h.printf("%s%s", strings.Join(values, h.cfg.FieldSep+" "), term)
			return
		}
	}
}

func matchMeasurement(rest string) *measurement {
	for i := range measurementForms {
		if strings.HasPrefix(rest, measurementForms[i].form) {
			return &measurementForms[i]
		}
	}

	return nil
}

func (h *Handler) dispatchSingle(line string) {
	switch {
	case line == "-h":
		h.printf("%s", helpText)
	case strings.HasPrefix(line, "*idn?"):
		h.printf("%s,%s%s", Identity, settings.Version, term)
	case strings.HasPrefix(line, "*rst"):
		h.factoryReset()
	case strings.HasPrefix(line, "-te"):
		h.updateOne("-te", line[3:], 10, 65000, func(s *settings.Settings, v int) {
			s.MinErrorMs = v
		})
	case strings.HasPrefix(line, "-t"):
		h.updateTwo("-t", line[2:], 1, 99, func(s *settings.Settings, lo, hi int) {
			s.DutyLowPct, s.DutyHighPct = lo, hi
		})
	case strings.HasPrefix(line, "-p"):
		h.updateTwo("-p", line[2:], 100, 65000, func(s *settings.Settings, lo, hi int) {
			s.PeriodMinUs, s.PeriodMaxUs = lo, hi
		})
	case strings.HasPrefix(line, "-s"):
		h.updateTwo("-s", line[2:], 1, 499, func(s *settings.Settings, lo, hi int) {
			s.DutyMin, s.DutyMax = lo, hi
		})
	case strings.HasPrefix(line, "-i"):
		h.updateOne("-i", line[2:], 0, 1, func(s *settings.Settings, v int) {
			s.Polarity = v
		})
	case strings.HasPrefix(line, "-l"):
		h.updateOne("-l", line[2:], 0, 1, func(s *settings.Settings, v int) {
			s.Listing = v == 1
		})
	case strings.HasPrefix(line, "-e"):
		h.updateOne("-e", line[2:], 0, 255, func(s *settings.Settings, v int) {
			s.MaxErrorCount = v
		})
	case strings.HasPrefix(line, "-b"):
		h.updateBaud(line[2:])
	case strings.HasPrefix(line, "-ds"):
		h.updateSeparator("-ds", line[3:], func(s *settings.Settings, c string) {
			s.DecimalSep = c
		})
	case strings.HasPrefix(line, "-cs"):
		h.updateSeparator("-cs", line[3:], func(s *settings.Settings, c string) {
			s.FieldSep = c
		})
	default:
		h.unknown(line)
	}
}

func (h *Handler) duty() string {
	return strconv.Itoa(h.meas.DutyPermille())
}

func (h *Handler) pulseWidth() string {
	return h.formatSeconds(h.meas.HighMicros())
}

func (h *Handler) period() string {
	return h.formatSeconds(h.meas.PeriodMicros())
}

// formatSeconds renders microseconds as seconds with six decimal places,
// using the configured decimal separator.
func (h *Handler) formatSeconds(us uint32) string {
	return fmt.Sprintf("%d%s%06d", us/1000000, h.cfg.DecimalSep, us%1000000)
}

func (h *Handler) factoryReset() {
	next := settings.Default()
	if !h.commit(next) {
		return
	}
	h.printf("factory defaults restored%s", term)
	h.writeSettings()
}

// commit validates, persists and applies a full settings value. On any
// failure the live settings are left untouched.
func (h *Handler) commit(next settings.Settings) bool {
	if err := next.Validate(); err != nil {
		h.printf("rejected: %s%s", err.Error(), term)
		return false
	}
	if err := h.store.Save(next); err != nil {
		h.printf("failed to persist settings: %s%s", err.Error(), term)
		return false
	}

	prevBaud := h.cfg.BaudRate
	*h.cfg = next

	if next.BaudRate != prevBaud && h.reopen != nil {
		if err := h.reopen(next.BaudRate); err != nil {
			logger.Error().Err(err).Int("baud", next.BaudRate).Msg("failed to reopen serial port")
		}
	}

	return true
}

func (h *Handler) unknown(line string) {
	h.printf("%s%s", line, term)
	h.printf("unknown command%s", term)
	h.helpHint()
}

func (h *Handler) helpHint() {
	h.printf("type -h for help%s", term)
}

func (h *Handler) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(h.out, format, args...); err != nil {
		logger.Error().Err(err).Msg("failed to write response")
	}
}
