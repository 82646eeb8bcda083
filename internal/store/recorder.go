package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

const (
	recorderQueueSize = 256
	writeTimeout      = 5 * time.Second
)

// Recorder is a scanner.Listener that writes scans and devices to a Store.
// Notifications are queued and written by a background goroutine so the
// session is never held up by the database.
type Recorder struct {
	store *Store
	log   logrus.FieldLogger

	mu      sync.Mutex
	closed  bool
	ops     chan func(context.Context) error
	done    chan struct{}
	dropped atomic.Uint64
}

// NewRecorder starts a recorder writing to s.
func NewRecorder(s *Store, log logrus.FieldLogger) *Recorder {
	r := &Recorder{
		store: s,
		log:   log,
		ops:   make(chan func(context.Context) error, recorderQueueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) OnScanStateChanged(scan scanner.Scan, _ scanner.State) {
	r.enqueue(func(ctx context.Context) error {
		return r.store.SaveScan(ctx, scan)
	})
}

func (r *Recorder) OnDeviceDiscovered(scan scanner.Scan, dev scanner.Device) {
	r.enqueue(func(ctx context.Context) error {
		return r.store.SaveDevice(ctx, scan.ID, dev)
	})
}

// Close waits for queued writes to finish. Notifications after Close are
// dropped.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ops)
	}
	r.mu.Unlock()
	<-r.done
}

// Dropped returns the number of writes lost to a full queue.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *Recorder) enqueue(op func(context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.ops <- op:
	default:
		r.dropped.Add(1)
		r.log.Warn("history queue full, dropping write")
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for op := range r.ops {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := op(ctx); err != nil {
			r.log.WithError(err).Warn("failed to record scan history")
		}
		cancel()
	}
}
