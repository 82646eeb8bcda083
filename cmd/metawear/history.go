package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli"

	"github.com/kenyoneda/MultiMetaWear/internal/store"
)

func historyCmd(c *cli.Context) error {
	e := current
	db, err := store.Open(e.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	return history(context.Background(), e.out, db, c.String("scan"), c.Int("limit"))
}

func history(ctx context.Context, out io.Writer, db *store.Store, scanID string, limit int) error {
	if scanID != "" {
		rec, err := db.GetScan(ctx, scanID)
		if err != nil {
			return err
		}
		devices, err := db.ListDevices(ctx, scanID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "🗂️ Scan %s started %s, filter %s, %s\n",
			rec.ID, rec.StartedAt.Local().Format(time.DateTime), rec.Filter, reasonOf(rec))
		printDevices(out, devices)
		return nil
	}

	scans, err := db.ListScans(ctx, limit)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		fmt.Fprintln(out, "🗂️ No scans recorded")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCAN\tSTARTED\tDURATION\tFILTER\tDEVICES\tENDED")
	for _, s := range scans {
		dur := "-"
		if !s.EndedAt.IsZero() {
			dur = s.EndedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.StartedAt.Local().Format(time.DateTime), dur, s.Filter, s.Devices, reasonOf(s))
	}
	return w.Flush()
}

func reasonOf(r store.ScanRecord) string {
	if r.Reason == "" {
		return "unfinished"
	}
	return r.Reason
}
