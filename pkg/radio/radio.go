// Package radio drives a tinygo.org/x/bluetooth adapter as a scanner.Radio.
package radio

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

// DefaultStartGrace is how long StartScanning waits for the adapter to report
// an immediate failure.
const DefaultStartGrace = 100 * time.Millisecond

const stopTimeout = time.Second

// ErrBusy is returned by StartScanning while a scan is already running.
var ErrBusy = errors.New("adapter is already scanning")

// Adapter is the part of *bluetooth.Adapter the radio uses.
type Adapter interface {
	Enable() error
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
}

// Radio implements scanner.Radio on top of an Adapter. The adapter is enabled
// lazily by the first StartScanning call.
type Radio struct {
	adapter Adapter
	grace   time.Duration
	probes  []probe
	log     logrus.FieldLogger

	mu      sync.Mutex
	enabled bool
	current *run

	sinkMu sync.Mutex
	sink   chan<- scanner.AdvertisementEvent

	dropped atomic.Uint64
}

// run is one adapter.Scan call. ended is closed once Scan returns, with its
// result in err.
type run struct {
	stopping chan struct{}
	ended    chan struct{}
	err      error
}

// Option configures a Radio.
type Option func(*Radio) error

// WithStartGrace overrides DefaultStartGrace.
func WithStartGrace(d time.Duration) Option {
	return func(r *Radio) error {
		r.grace = d
		return nil
	}
}

// WithProbes sets the services to look for on platforms that do not expose
// raw advertising bytes. Usually these are the members of the scan filter.
func WithProbes(ids ...uuid.UUID) Option {
	return func(r *Radio) error {
		probes, err := newProbes(ids)
		if err != nil {
			return errors.Wrap(err, "radio probes")
		}
		r.probes = probes
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Radio) error {
		r.log = l
		return nil
	}
}

// New returns a Radio for adapter. Pass bluetooth.DefaultAdapter for the
// system adapter.
func New(adapter Adapter, opts ...Option) (*Radio, error) {
	r := &Radio{
		adapter: adapter,
		grace:   DefaultStartGrace,
		log:     nopLogger(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// StartScanning enables the adapter if needed and starts a scan in the
// background. Advertisements go to events without blocking; when events is
// full they are counted and dropped. A scan that ends by itself after the
// start grace window is reported to failed.
func (r *Radio) StartScanning(events chan<- scanner.AdvertisementEvent, failed func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return ErrBusy
	}
	if !r.enabled {
		if err := r.adapter.Enable(); err != nil {
			return errors.Wrap(err, "enable adapter")
		}
		r.enabled = true
	}

	r.setSink(events)
	sc := &run{
		stopping: make(chan struct{}),
		ended:    make(chan struct{}),
	}
	go func() {
		sc.err = r.adapter.Scan(r.onResult)
		close(sc.ended)
	}()

	select {
	case <-sc.ended:
		r.setSink(nil)
		return errors.Wrap(endedErr(sc.err), "scan")
	case <-time.After(r.grace):
	}

	r.current = sc
	go r.monitor(sc, failed)
	r.log.Debug("📡 adapter scanning")
	return nil
}

func (r *Radio) monitor(sc *run, failed func(error)) {
	select {
	case <-sc.stopping:
		return
	case <-sc.ended:
	}

	r.mu.Lock()
	if r.current != sc {
		r.mu.Unlock()
		return
	}
	r.current = nil
	r.setSink(nil)
	r.mu.Unlock()

	err := errors.Wrap(endedErr(sc.err), "scan")
	r.log.WithError(err).Warn("😭 adapter stopped scanning on its own")
	if failed != nil {
		failed(err)
	}
}

func endedErr(err error) error {
	if err == nil {
		return errors.New("scan returned unexpectedly")
	}
	return err
}

// StopScanning stops the background scan and waits briefly for it to return.
func (r *Radio) StopScanning() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sc := r.current
	if sc == nil {
		return nil
	}
	r.current = nil
	close(sc.stopping)
	r.setSink(nil)

	if err := r.adapter.StopScan(); err != nil {
		return errors.Wrap(err, "stop scan")
	}

	select {
	case <-sc.ended:
		if sc.err != nil {
			r.log.WithError(sc.err).Debug("scan ended with error")
		}
	case <-time.After(stopTimeout):
		r.log.Warn("adapter did not finish scanning in time")
	}
	r.log.WithField("dropped", r.dropped.Load()).Debug("📴 adapter stopped")
	return nil
}

// Dropped returns the number of advertisements lost to a full queue.
func (r *Radio) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *Radio) setSink(events chan<- scanner.AdvertisementEvent) {
	r.sinkMu.Lock()
	r.sink = events
	r.sinkMu.Unlock()
}

func (r *Radio) onResult(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
	r.deliver(result.Address.String(), result.RSSI, result.AdvertisementPayload)
}

func (r *Radio) deliver(address string, rssi int16, p bluetooth.AdvertisementPayload) {
	r.sinkMu.Lock()
	sink := r.sink
	r.sinkMu.Unlock()
	if sink == nil {
		return
	}

	ev := scanner.AdvertisementEvent{
		Address: address,
		Name:    p.LocalName(),
		RSSI:    int(rssi),
		Payload: payloadOf(p, r.probes),
	}
	select {
	case sink <- ev:
	default:
		r.dropped.Add(1)
	}
}

func nopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
