package protocol

// MaxLine bounds the accumulated command line.
const MaxLine = 64

// Session accumulates serial bytes into normalized command lines: input is
// lowercased, runs of whitespace collapse to a single space, and a trailing
// space before the terminator is trimmed. Bytes past MaxLine are discarded.
type Session struct {
	buf []byte
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{buf: make([]byte, 0, MaxLine)}
}

// Feed consumes one byte. When a terminator completes a non-empty line, the
// normalized line is returned with complete=true and the accumulator resets.
// Empty lines are ignored as noise.
func (s *Session) Feed(b byte) (line string, complete bool) {
	switch {
	case b == '\n' || b == '\r':
		if len(s.buf) == 0 {
			return "", false
		}
		n := len(s.buf)
		if s.buf[n-1] == ' ' {
			n--
		}
		line = string(s.buf[:n])
		s.buf = s.buf[:0]
		if line == "" {
			return "", false
		}
		return line, true
	case b == ' ' || b == '\t':
		if len(s.buf) == 0 || s.buf[len(s.buf)-1] == ' ' {
			return "", false
		}
		s.push(' ')
	default:
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		s.push(b)
	}

	return "", false
}

func (s *Session) push(b byte) {
	if len(s.buf) >= MaxLine {
		return
	}
	s.buf = append(s.buf, b)
}
