package gpio

// FakeWatcher is a test double that delivers scripted edges.
type FakeWatcher struct {
	handler EdgeHandler

	// Closed tracks if Close was called
	Closed bool

	// WatchError, if set, will be returned by Watch()
	WatchError error
}

// NewFakeWatcher creates a FakeWatcher.
func NewFakeWatcher() *FakeWatcher {
	return &FakeWatcher{}
}

// Watch registers the handler.
func (w *FakeWatcher) Watch(handler EdgeHandler) error {
	if w.WatchError != nil {
		return w.WatchError
	}
	w.handler = handler

	return nil
}

// Fire delivers one edge to the registered handler.
func (w *FakeWatcher) Fire(level bool, micros uint32) {
	if w.handler != nil {
		w.handler(level, micros)
	}
}

// Close marks the watcher as closed.
func (w *FakeWatcher) Close() error {
	w.Closed = true

	return nil
}

// FakeOutput records the values driven onto an output line.
type FakeOutput struct {
	// Active is the currently driven state.
	Active bool

	// History records every Set call in order.
	History []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// Set records the driven state.
func (o *FakeOutput) Set(active bool) error {
	if o.SetError != nil {
		return o.SetError
	}
	o.Active = active
	o.History = append(o.History, active)

	return nil
}

// Close marks the output as closed and inactive.
func (o *FakeOutput) Close() error {
	o.Active = false
	o.Closed = true

	return nil
}
