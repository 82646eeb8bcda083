package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/urfave/cli"

	"github.com/kenyoneda/MultiMetaWear/internal/config"
	"github.com/kenyoneda/MultiMetaWear/internal/tracer"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

// watcher starts a scan on every tick. A tick that finds the previous scan
// still running is skipped; repeated radio failures open the breaker so the
// adapter is left alone for a while.
type watcher struct {
	session *scanner.Session
	filter  scanner.FilterSet
	breaker *gobreaker.CircuitBreaker[scanner.Scan]
	log     logrus.FieldLogger
}

func newWatcher(session *scanner.Session, filter scanner.FilterSet, cfg config.BreakerConfig, log logrus.FieldLogger) *watcher {
	return &watcher{
		session: session,
		filter:  filter,
		log:     log,
		breaker: gobreaker.NewCircuitBreaker[scanner.Scan](gobreaker.Settings{
			Name:        "radio",
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("circuit breaker state change")
			},
			IsExcluded: func(err error) bool {
				return errors.Is(err, scanner.ErrDuplicateStart)
			},
		}),
	}
}

func (w *watcher) tick() {
	_, span := tracer.StartSpan(context.Background(), "watch.tick")
	defer span.End()

	scan, err := w.breaker.Execute(func() (scanner.Scan, error) {
		return w.session.Start(w.filter)
	})
	switch {
	case err == nil:
		tracer.SetOK(span)
		w.log.WithField("scan", scan.ID).Debug("watch started scan")
	case errors.Is(err, scanner.ErrDuplicateStart):
		tracer.SetOK(span)
		w.log.Debug("previous scan still running, skipping tick")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		tracer.RecordError(span, err)
		w.log.Debug("radio breaker open, skipping tick")
	default:
		tracer.RecordError(span, err)
		w.log.WithError(err).Error("😭 could not start scan")
	}
}

func watchCmd(c *cli.Context) error {
	e := current
	filter, err := e.filterFor(c)
	if err != nil {
		return err
	}
	expr := e.cfg.Watch.Schedule
	if s := c.String("schedule"); s != "" {
		expr = s
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return errors.Wrapf(err, "schedule %q", expr)
	}

	session, release, err := e.openSession(filter, 0)
	if err != nil {
		return err
	}
	defer release()

	w := newWatcher(session, filter, e.cfg.Watch.Breaker, e.log.WithField("component", "watch"))

	sched := cron.New()
	sched.Schedule(schedule, cron.FuncJob(w.tick))
	sched.Start()
	e.log.WithField("schedule", expr).Info("👁️ Watching")
	w.tick()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	<-sig

	e.log.Info("✋ Interrupted, stopping watch")
	<-sched.Stop().Done()
	session.Stop()
	return nil
}
