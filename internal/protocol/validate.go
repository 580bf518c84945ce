package protocol

import (
	"strconv"
	"strings"

	"codeberg.org/wrenvik/dutymond/internal/settings"
)

// parseInts parses exactly n integers from the argument remainder of a
// command line.
func parseInts(args string, n int) ([]int, bool) {
	fields := strings.Fields(args)
	if len(fields) != n {
		return nil, false
	}

	vals := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		vals[i] = v
	}

	return vals, true
}

// updateTwo handles a two-value range command: both values must parse, lie
// in [lo, hi] and satisfy low <= high. Either the full update is applied and
// persisted, or nothing changes.
func (h *Handler) updateTwo(name, args string, lo, hi int, apply func(*settings.Settings, int, int)) {
	vals, ok := parseInts(args, 2)
	if !ok || vals[0] < lo || vals[1] > hi || vals[0] > vals[1] {
		h.printf("%s expects two values in %d..%d with low <= high%s", name, lo, hi, term)
		h.helpHint()
		return
	}

	next := *h.cfg
	apply(&next, vals[0], vals[1])
	if !h.commit(next) {
		return
	}
	h.confirm()
}

// updateOne handles a single-value command with an inclusive range.
func (h *Handler) updateOne(name, args string, lo, hi int, apply func(*settings.Settings, int)) {
	vals, ok := parseInts(args, 1)
	if !ok || vals[0] < lo || vals[0] > hi {
		h.printf("%s expects one value in %d..%d%s", name, lo, hi, term)
		h.helpHint()
		return
	}

	next := *h.cfg
	apply(&next, vals[0])
	if !h.commit(next) {
		return
	}
	h.confirm()
}

// updateBaud restricts the value to the enumerated speed classes instead of
// the generic range check.
func (h *Handler) updateBaud(args string) {
	vals, ok := parseInts(args, 1)
	if !ok || !settings.ValidBaudRate(vals[0]) {
		h.printf("-b expects one of %s%s", joinInts(settings.BaudRates), term)
		h.helpHint()
		return
	}

	next := *h.cfg
	next.BaudRate = vals[0]
	if !h.commit(next) {
		return
	}
	h.confirm()
}

// updateSeparator requires exactly one trailing character; any other length
// is reported as unknown input.
func (h *Handler) updateSeparator(name, args string, apply func(*settings.Settings, string)) {
	if len(args) != 2 || args[0] != ' ' {
		h.unknown(name + args)
		return
	}

	next := *h.cfg
	apply(&next, args[1:])
	if !h.commit(next) {
		return
	}
	h.confirm()
}

func (h *Handler) confirm() {
	h.printf("ok%s", term)
	h.writeSettings()
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, " ")
}
