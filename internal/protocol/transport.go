package protocol

import (
	"io"
	"sync"

	"codeberg.org/wrenvik/dutymond/internal/errors"
	"codeberg.org/wrenvik/dutymond/internal/logger"
	"go.bug.st/serial"
)

const lineBuffer = 8

// Transport owns the serial port carrying the command protocol. A reader
// goroutine feeds bytes through a Session and publishes complete lines on a
// channel consumed by the main loop; responses are written back through the
// io.Writer side.
type Transport struct {
	device string

	mu    sync.Mutex
	port  serial.Port
	stop  chan struct{}
	lines chan string
}

// OpenTransport opens the serial device at the given speed class and starts
// the reader.
func OpenTransport(device string, baud int) (*Transport, error) {
	t := &Transport{
		device: device,
		lines:  make(chan string, lineBuffer),
	}
	if err := t.open(baud); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Transport) open(baud int) error {
	port, err := serial.Open(t.device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return errors.Wrap(ErrPortOpen, err)
	}

	t.mu.Lock()
	t.port = port
	t.stop = make(chan struct{})
	t.mu.Unlock()

	go t.readLoop(port, t.stop)

	return nil
}

// Lines returns the channel of complete, normalized command lines.
func (t *Transport) Lines() <-chan string {
	return t.lines
}

// Write sends a response to the client.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == nil {
		return 0, errors.New(ErrPortClosed)
	}
	n, err := port.Write(p)
	if err != nil {
		return n, errors.Wrap(ErrPortWrite, err)
	}

	return n, nil
}

// Reopen closes the port and reopens it at the new speed class. Used after
// an accepted -b command.
func (t *Transport) Reopen(baud int) error {
	t.closePort()

	return t.open(baud)
}

// Close shuts the reader down and closes the port. The lines channel is left
// open; the reader goroutine may still hold a reference to it.
func (t *Transport) Close() error {
	t.closePort()

	return nil
}

func (t *Transport) closePort() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	if t.port != nil {
		if err := t.port.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing serial port")
		}
		t.port = nil
	}
}

func (t *Transport) readLoop(port serial.Port, stop chan struct{}) {
	session := NewSession()
	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			if err != io.EOF {
				logger.Error().Err(err).Msg("serial read failed")
			}
			return
		}
		for _, b := range buf[:n] {
			line, complete := session.Feed(b)
			if !complete {
				continue
			}
			select {
			case t.lines <- line:
			case <-stop:
				return
			default:
				logger.Warn().Msg("line buffer full, dropping command")
			}
		}
	}
}
