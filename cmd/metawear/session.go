package main

import (
	"time"

	"github.com/urfave/cli"
	"tinygo.org/x/bluetooth"

	"github.com/kenyoneda/MultiMetaWear/internal/store"
	"github.com/kenyoneda/MultiMetaWear/internal/tracer"
	"github.com/kenyoneda/MultiMetaWear/pkg/radio"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

// filterFor resolves the filter from --all, --service or the config, in that
// order.
func (e *env) filterFor(c *cli.Context) (scanner.FilterSet, error) {
	if c.Bool("all") {
		return scanner.FilterSet{}, nil
	}
	if ss := c.StringSlice("service"); len(ss) > 0 {
		return scanner.ParseFilterSet(ss)
	}
	return e.cfg.Scan.FilterSet()
}

// openSession wires the system adapter, console output, tracing and (when
// enabled) the history store into a new session. The returned func releases
// everything and must be called once the session is done.
func (e *env) openSession(filter scanner.FilterSet, duration time.Duration, extra ...scanner.Listener) (*scanner.Session, func(), error) {
	r, err := radio.New(bluetooth.DefaultAdapter,
		radio.WithStartGrace(e.cfg.Radio.StartGrace),
		radio.WithProbes(filter.IDs()...),
		radio.WithLogger(e.log.WithField("component", "radio")),
	)
	if err != nil {
		return nil, nil, err
	}

	listeners := scanner.Listeners{
		newConsole(e.out, e.cfg.Console.RefreshPerSecond),
		tracer.NewScanSpans(nil),
	}

	var rec *store.Recorder
	var db *store.Store
	if e.cfg.Store.Enabled {
		db, err = store.Open(e.cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		rec = store.NewRecorder(db, e.log.WithField("component", "store"))
		listeners = append(listeners, rec)
	}
	listeners = append(listeners, extra...)

	if duration <= 0 {
		duration = e.cfg.Scan.Duration
	}
	session := scanner.NewSession(r,
		scanner.WithDuration(duration),
		scanner.WithQueueSize(e.cfg.Scan.QueueSize),
		scanner.WithListener(listeners),
		scanner.WithLogger(e.log.WithField("component", "scanner")),
	)

	release := func() {
		session.Close()
		if rec != nil {
			rec.Close()
			if n := rec.Dropped(); n > 0 {
				e.log.WithField("dropped", n).Warn("some scan history was not recorded")
			}
		}
		if db != nil {
			if err := db.Close(); err != nil {
				e.log.WithError(err).Warn("closing history db")
			}
		}
		if n := r.Dropped(); n > 0 {
			e.log.WithField("dropped", n).Debug("advertisements dropped on a full queue")
		}
	}
	return session, release, nil
}

// scanEnded returns a listener that signals each scan's return to Idle.
func scanEnded() (scanner.Listener, <-chan scanner.Scan) {
	ch := make(chan scanner.Scan, 1)
	return scanner.ListenerFuncs{
		ScanStateChanged: func(scan scanner.Scan, state scanner.State) {
			if state != scanner.Idle {
				return
			}
			select {
			case ch <- scan:
			default:
			}
		},
	}, ch
}
