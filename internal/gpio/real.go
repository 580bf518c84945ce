//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealWatcher watches a GPIO line on actual hardware using the Linux GPIO
// character device.
type RealWatcher struct {
	chipName string
	offset   int
	line     *gpiocdev.Line
	handler  EdgeHandler
}

// NewRealWatcher creates a watcher for the given chip and line offset.
func NewRealWatcher(chipName string, offset int) (*RealWatcher, error) {
	return &RealWatcher{chipName: chipName, offset: offset}, nil
}

// Watch requests the line with both-edge events and delivers them to handler.
// The kernel event timestamp is used rather than re-reading the line, so a
// level change during delivery cannot misclassify the edge.
func (w *RealWatcher) Watch(handler EdgeHandler) error {
	w.handler = handler

	line, err := gpiocdev.RequestLine(w.chipName, w.offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(w.onEvent))
	if err != nil {
		return fmt.Errorf("request input line %d: %w", w.offset, err)
	}
	w.line = line

	return nil
}

func (w *RealWatcher) onEvent(evt gpiocdev.LineEvent) {
	level := evt.Type == gpiocdev.LineEventRisingEdge
	micros := uint32(evt.Timestamp / time.Microsecond)
	w.handler(level, micros)
}

// Close releases the input line.
func (w *RealWatcher) Close() error {
	if w.line == nil {
		return nil
	}
	if err := w.line.Close(); err != nil {
		return fmt.Errorf("close input line: %w", err)
	}
	w.line = nil

	return nil
}

// RealOutput drives a GPIO output line on actual hardware.
type RealOutput struct {
	line *gpiocdev.Line
}

// NewRealOutput requests the given line as an output, initially inactive.
func NewRealOutput(chipName string, offset int) (*RealOutput, error) {
	line, err := gpiocdev.RequestLine(chipName, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output line %d: %w", offset, err)
	}

	return &RealOutput{line: line}, nil
}

// Set drives the line.
func (o *RealOutput) Set(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set output: %w", err)
	}

	return nil
}

// Close drives the line inactive and releases it.
func (o *RealOutput) Close() error {
	if o.line == nil {
		return nil
	}
	if err := o.line.SetValue(0); err != nil {
		return fmt.Errorf("reset output: %w", err)
	}
	if err := o.line.Close(); err != nil {
		return fmt.Errorf("close output line: %w", err)
	}
	o.line = nil

	return nil
}
