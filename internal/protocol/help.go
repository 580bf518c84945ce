package protocol

var helpText = "" +
	"-h                              this help\r\n" +
	"*idn?                           identity and settings version\r\n" +
	"*rst                            restore factory defaults\r\n" +
	":fetch? | :fetc?                duty cycle (permille)\r\n" +
	":measure:pwidth? | :meas:pwid?  pulse width (s)\r\n" +
	":measure:period? | :meas:per?   period (s)\r\n" +
	"-t LOW HIGH                     duty thresholds % (1..99, LOW <= HIGH)\r\n" +
	"-p MIN MAX                      period tolerance us (100..65000)\r\n" +
	"-s MIN MAX                      duty tolerance permille (1..499)\r\n" +
	"-i 0|1                          output polarity\r\n" +
	"-l 0|1                          listing enable\r\n" +
	"-e N                            error limit (0..255, 255 = off)\r\n" +
	"-te N                           min error duration ms (10..65000)\r\n" +
	"-b RATE                         serial speed class\r\n" +
	"-ds C                           decimal separator\r\n" +
	"-cs C                           field separator\r\n"

// writeSettings prints the full current configuration, appended to every
// accepted update confirmation.
func (h *Handler) writeSettings() {
	c := h.cfg
	h.printf("duty thresholds: %d %d%s", c.DutyLowPct, c.DutyHighPct, term)
	h.printf("polarity: %d%s", c.Polarity, term)
	h.printf("period tolerance: %d %d%s", c.PeriodMinUs, c.PeriodMaxUs, term)
	h.printf("duty tolerance: %d %d%s", c.DutyMin, c.DutyMax, term)
	h.printf("error limit: %d%s", c.MaxErrorCount, term)
	h.printf("min error duration: %d%s", c.MinErrorMs, term)
	h.printf("baud: %d%s", c.BaudRate, term)
	h.printf("listing: %s%s", boolDigit(c.Listing), term)
	h.printf("separators: %s %s%s", c.DecimalSep, c.FieldSep, term)
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
