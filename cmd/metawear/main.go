package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/kenyoneda/MultiMetaWear/internal/config"
	"github.com/kenyoneda/MultiMetaWear/internal/logger"
	"github.com/kenyoneda/MultiMetaWear/internal/tracer"
)

// env is what every command needs once the config is loaded.
type env struct {
	cfg *config.Config
	log *logrus.Logger
	out io.Writer

	closeLog       func() error
	shutdownTracer func(context.Context) error
}

var current = &env{out: os.Stdout}

func main() {
	app := cli.NewApp()

	app.Name = "metawear"
	app.Usage = "Find MetaWear boards and other BLE devices nearby"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Value:  "metawear.yaml",
			Usage:  "path to the YAML config file",
			EnvVar: "METAWEAR_CONFIG",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "override logger.level (debug, info, warn, error)",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:    "scan",
			Aliases: []string{"s"},
			Usage:   "Run one scan session and list the devices found",
			Action:  scanCmd,
			Flags: []cli.Flag{
				cli.DurationFlag{Name: "duration, d", Usage: "scan duration (default scan.duration)"},
				cli.StringSliceFlag{Name: "service, s", Usage: "service UUID to look for, 16-bit or 128-bit (repeatable)"},
				cli.BoolFlag{Name: "all, a", Usage: "accept every device regardless of services"},
			},
		},
		{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Scan repeatedly on a schedule until interrupted",
			Action:  watchCmd,
			Flags: []cli.Flag{
				cli.StringFlag{Name: "schedule", Usage: "cron spec or @every descriptor (default watch.schedule)"},
				cli.StringSliceFlag{Name: "service, s", Usage: "service UUID to look for (repeatable)"},
				cli.BoolFlag{Name: "all, a", Usage: "accept every device regardless of services"},
			},
		},
		{
			Name:      "decode",
			Aliases:   []string{"d"},
			Usage:     "Decode a hex advertising payload",
			ArgsUsage: "<hex>",
			Action:    decodeCmd,
			Flags: []cli.Flag{
				cli.StringSliceFlag{Name: "service, s", Usage: "check the payload against this service UUID (repeatable)"},
			},
		},
		{
			Name:   "history",
			Usage:  "List recorded scans, or the devices of one scan",
			Action: historyCmd,
			Flags: []cli.Flag{
				cli.IntFlag{Name: "limit, n", Value: 20, Usage: "number of scans to list"},
				cli.StringFlag{Name: "scan", Usage: "list the devices recorded for this scan id"},
			},
		},
	}

	app.Before = setup
	app.After = teardown

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "😭 %s\n", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Logger.Level = lvl
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}

	shutdown, err := tracer.Setup(context.Background(), cfg.Tracer)
	if err != nil {
		closeLog()
		return errors.Wrap(err, "set up tracing")
	}

	current.cfg = cfg
	current.log = log
	current.closeLog = closeLog
	current.shutdownTracer = shutdown
	return nil
}

func teardown(c *cli.Context) error {
	if current.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := current.shutdownTracer(ctx); err != nil {
			current.log.WithError(err).Warn("tracer shutdown failed")
		}
	}
	if current.closeLog != nil {
		return current.closeLog()
	}
	return nil
}
