// Package gpio provides edge-event input and digital output with hardware
// abstraction. The real implementation uses the Linux GPIO character device;
// the fake implementation allows testing without hardware.
package gpio

// EdgeHandler is invoked on every transition of the monitored input line.
// level is the sampled line level immediately after the event timestamp was
// taken, micros the event time in wraparound microseconds. Handlers must be
// O(1) and allocation-free; the watcher serializes invocations.
type EdgeHandler func(level bool, micros uint32)

// Watcher delivers edge events from the monitored input line.
type Watcher interface {
	// Watch registers the handler and starts event delivery.
	Watch(handler EdgeHandler) error

	// Close releases the input line.
	Close() error
}

// OutputPin drives one digital output line.
type OutputPin interface {
	// Set drives the line to logical 1 when active is true.
	Set(active bool) error

	// Close releases the line, leaving it inactive.
	Close() error
}
