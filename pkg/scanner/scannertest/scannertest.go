// Package scannertest provides test doubles for the scanner package.
package scannertest

import (
	"sync"
	"time"

	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

// FakeRadio is a scanner.Radio driven by the test.
type FakeRadio struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	events   chan<- scanner.AdvertisementEvent
	last     chan<- scanner.AdvertisementEvent
	failed   func(error)
	lastFail func(error)
	starts   int
	stops    int
}

// NewFakeRadio returns an idle fake radio.
func NewFakeRadio() *FakeRadio {
	return &FakeRadio{}
}

// FailStart makes subsequent StartScanning calls return err. Pass nil to
// recover.
func (r *FakeRadio) FailStart(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

// FailStop makes subsequent StopScanning calls return err.
func (r *FakeRadio) FailStop(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopErr = err
}

func (r *FakeRadio) StartScanning(events chan<- scanner.AdvertisementEvent, failed func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.events = events
	r.last = events
	r.failed = failed
	r.lastFail = failed
	r.starts++
	return nil
}

func (r *FakeRadio) StopScanning() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.failed = nil
	r.stops++
	return r.stopErr
}

// Break ends the running scan the way a failing driver does: delivery stops
// and the failure callback receives err. It reports whether a scan was running.
func (r *FakeRadio) Break(err error) bool {
	r.mu.Lock()
	failed := r.failed
	r.events = nil
	r.failed = nil
	r.mu.Unlock()

	if failed == nil {
		return false
	}
	failed(err)
	return true
}

// LastFailure returns the failure callback handed to the last StartScanning
// call, even after StopScanning, so tests can deliver late failures.
func (r *FakeRadio) LastFailure() func(error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastFail
}

// Emit delivers ev the way a radio driver would: without blocking. It reports
// whether the event was queued.
func (r *FakeRadio) Emit(ev scanner.AdvertisementEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		return false
	}
	select {
	case r.events <- ev:
		return true
	default:
		return false
	}
}

// Sink returns the channel handed to the last StartScanning call, even after
// StopScanning, so tests can inject late events.
func (r *FakeRadio) Sink() chan<- scanner.AdvertisementEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Scanning reports whether the radio is between StartScanning and StopScanning.
func (r *FakeRadio) Scanning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events != nil
}

// Starts returns the number of successful StartScanning calls.
func (r *FakeRadio) Starts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// Stops returns the number of StopScanning calls.
func (r *FakeRadio) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

// FakeClock is a manually advanced scanner.Clock.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*FakeTimer
}

// NewFakeClock returns a clock reading now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) scanner.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &FakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and runs every pending timer that is due.
// Callbacks run on the calling goroutine.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*FakeTimer
	for _, t := range c.timers {
		if t.pending() && !t.at.After(c.now) {
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		if t.pending() {
			t.Fire()
		}
	}
}

// Timers returns every timer created so far, in creation order.
func (c *FakeClock) Timers() []*FakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*FakeTimer(nil), c.timers...)
}

// FakeTimer is a timer created by FakeClock.
type FakeTimer struct {
	mu      sync.Mutex
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *FakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// Fire runs the callback even if the timer was stopped, the way a real timer
// can fire concurrently with Stop.
func (t *FakeTimer) Fire() {
	t.mu.Lock()
	t.fired = true
	f := t.f
	t.mu.Unlock()
	f()
}

// Stopped reports whether Stop was called.
func (t *FakeTimer) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *FakeTimer) pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped && !t.fired
}

// Recorder is a scanner.Listener that keeps every notification.
type Recorder struct {
	mu      sync.Mutex
	devices []scanner.Device
	states  []scanner.State
	scans   []scanner.Scan
}

func (r *Recorder) OnDeviceDiscovered(_ scanner.Scan, dev scanner.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, dev)
}

func (r *Recorder) OnScanStateChanged(scan scanner.Scan, state scanner.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	r.scans = append(r.scans, scan)
}

// Devices returns the devices notified so far.
func (r *Recorder) Devices() []scanner.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scanner.Device(nil), r.devices...)
}

// States returns the state transitions notified so far.
func (r *Recorder) States() []scanner.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scanner.State(nil), r.states...)
}

// Scans returns the scan attached to each state notification.
func (r *Recorder) Scans() []scanner.Scan {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scanner.Scan(nil), r.scans...)
}
