package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

func scanCmd(c *cli.Context) error {
	e := current
	filter, err := e.filterFor(c)
	if err != nil {
		return err
	}

	ended, endedCh := scanEnded()
	session, release, err := e.openSession(filter, c.Duration("duration"), ended)
	if err != nil {
		return err
	}
	defer release()

	if _, err := session.Start(filter); err != nil {
		if errors.Is(err, scanner.ErrRadioUnavailable) {
			return cli.NewExitError("😭 "+err.Error(), 2)
		}
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-endedCh:
	case <-sig:
		e.log.Info("✋ Interrupted, stopping scan")
		session.Stop()
	}

	printDevices(e.out, session.Devices())
	if scan := session.Scan(); scan.Reason == scanner.StopFailed {
		return cli.NewExitError("😭 "+scan.Err.Error(), 2)
	}
	return nil
}
