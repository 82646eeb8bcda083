// Package scanner runs bounded BLE scan sessions: it feeds advertisements from
// a Radio through the advertising data parser and a FilterSet, and keeps the
// matching devices in a Registry.
package scanner

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kenyoneda/MultiMetaWear/pkg/advdata"
)

// DefaultDuration is how long a scan runs before it expires.
const DefaultDuration = 10 * time.Second

// DefaultQueueSize is the capacity of the advertisement queue handed to the radio.
const DefaultQueueSize = 64

// Session owns one radio and runs at most one scan at a time.
//
// All state, the registry and the expiry timer are guarded by a single mutex.
// Each Start bumps a generation counter; queued advertisements and expiry
// callbacks carry the generation they were created under and are dropped once
// it no longer matches.
type Session struct {
	radio     Radio
	clock     Clock
	duration  time.Duration
	queueSize int
	listener  Listener
	log       logrus.FieldLogger

	mu       sync.Mutex
	state    State
	gen      uint64
	scan     Scan
	registry *Registry
	timer    Timer
	done     chan struct{}
	closed   bool
	entropy  io.Reader
}

// Option configures a Session.
type Option func(*Session)

// WithDuration sets the scan duration.
func WithDuration(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithQueueSize sets the capacity of the advertisement queue.
func WithQueueSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithListener sets the notification target.
func WithListener(l Listener) Option {
	return func(s *Session) { s.listener = l }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// NewSession returns an Idle session bound to radio.
func NewSession(radio Radio, opts ...Option) *Session {
	s := &Session{
		radio:     radio,
		clock:     systemClock{},
		duration:  DefaultDuration,
		queueSize: DefaultQueueSize,
		listener:  ListenerFuncs{},
		log:       nopLogger(),
		registry:  NewRegistry(),
		entropy:   ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start clears the registry, acquires the radio and arms the expiry timer.
// It fails with ErrDuplicateStart while scanning, with a *RadioError when the
// radio cannot scan, and with ErrClosed after Close. On failure the session
// stays Idle.
func (s *Session) Start(filter FilterSet) (Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Scan{}, ErrClosed
	}
	if s.state == Scanning {
		return Scan{}, errors.Wrapf(ErrDuplicateStart, "scan %s", s.scan.ID)
	}

	s.registry.Clear()

	gen := s.gen + 1
	events := make(chan AdvertisementEvent, s.queueSize)
	failed := func(err error) { s.fail(gen, err) }
	if err := s.radio.StartScanning(events, failed); err != nil {
		s.log.WithError(err).Warn("radio could not start scanning")
		return Scan{}, &RadioError{Op: "start scanning", Err: err}
	}

	s.gen = gen
	now := s.clock.Now()
	s.scan = Scan{
		ID:        ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Filter:    filter,
		StartedAt: now,
		Deadline:  now.Add(s.duration),
	}
	s.done = make(chan struct{})
	s.timer = s.clock.AfterFunc(s.duration, func() { s.expire(gen) })
	s.state = Scanning

	go s.consume(gen, events, s.done)

	s.log.WithFields(logrus.Fields{
		"scan":     s.scan.ID,
		"filter":   filter.String(),
		"duration": s.duration,
	}).Info("scan started")
	s.listener.OnScanStateChanged(s.scan, Scanning)
	return s.scan, nil
}

// Stop ends the current scan. It is a no-op when Idle. No registry change or
// notification for the stopped scan happens after Stop returns.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Scanning {
		return
	}
	s.finish(StopRequested)
}

// Close stops any scan and rejects further Start calls.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Scanning {
		s.finish(StopClosed)
	}
	s.closed = true
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Scan returns the current scan, or the most recent one when Idle.
func (s *Session) Scan() Scan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan
}

// Devices returns the registered devices in first-seen order.
func (s *Session) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.List()
}

func (s *Session) consume(gen uint64, events <-chan AdvertisementEvent, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev := <-events:
			s.handle(gen, ev)
		}
	}
}

func (s *Session) handle(gen uint64, ev AdvertisementEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Scanning || s.gen != gen {
		return
	}

	filter := s.scan.Filter
	var stop func(uuid.UUID) bool
	if !filter.Empty() {
		stop = filter.Contains
	}
	ids := advdata.Services(ev.Payload, stop)
	if !filter.Matches(ids) {
		s.log.WithFields(logrus.Fields{
			"address":  ev.Address,
			"services": len(ids),
		}).Debug("advertisement filtered out")
		return
	}

	obs := Device{
		Address:  ev.Address,
		Name:     ev.Name,
		RSSI:     ev.RSSI,
		LastSeen: s.clock.Now(),
	}
	if obs.Name == "" {
		obs.Name = advdata.LocalName(ev.Payload)
	}
	if !filter.Empty() {
		obs.Service = ids[len(ids)-1]
	}

	dev, added := s.registry.Upsert(obs)
	if added {
		s.log.WithFields(logrus.Fields{
			"scan":    s.scan.ID,
			"address": dev.Address,
			"name":    dev.Name,
			"rssi":    dev.RSSI,
		}).Debug("device discovered")
	}
	s.listener.OnDeviceDiscovered(s.scan, dev)
}

func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Scanning || s.gen != gen {
		s.log.WithField("generation", gen).Debug("ignoring stale scan expiry")
		return
	}
	s.finish(StopExpired)
}

// fail ends the scan of generation gen after the radio stopped on its own.
func (s *Session) fail(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Scanning || s.gen != gen {
		s.log.WithError(err).WithField("generation", gen).Debug("ignoring radio failure of a finished scan")
		return
	}
	s.log.WithError(err).WithField("scan", s.scan.ID).Warn("radio stopped scanning")
	s.scan.Err = &RadioError{Op: "scan", Err: err}
	s.finish(StopFailed)
}

// finish must be called with s.mu held while Scanning.
func (s *Session) finish(reason StopReason) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	close(s.done)
	if err := s.radio.StopScanning(); err != nil {
		s.log.WithError(err).Warn("radio failed to stop scanning")
	}

	s.gen++
	s.state = Idle
	s.scan.EndedAt = s.clock.Now()
	s.scan.Reason = reason

	s.log.WithFields(logrus.Fields{
		"scan":    s.scan.ID,
		"reason":  reason.String(),
		"devices": s.registry.Len(),
	}).Info("scan ended")
	s.listener.OnScanStateChanged(s.scan, Idle)
}

func nopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
