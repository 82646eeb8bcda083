package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

// console prints scan progress. New devices are always printed; signal
// strength refreshes are throttled by limiter, or suppressed when it is nil.
type console struct {
	out     io.Writer
	limiter *rate.Limiter
}

func newConsole(out io.Writer, refreshPerSecond float64) *console {
	c := &console{out: out}
	if refreshPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(refreshPerSecond), 1)
	}
	return c
}

func (c *console) OnScanStateChanged(scan scanner.Scan, state scanner.State) {
	switch state {
	case scanner.Scanning:
		fmt.Fprintf(c.out, "🕵️ Scanning for %s (filter %s)\n", scan.Deadline.Sub(scan.StartedAt), scan.Filter)
	case scanner.Idle:
		if scan.Reason == scanner.StopFailed {
			fmt.Fprintf(c.out, "😭 Scan %s failed: %v\n", scan.ID, scan.Err)
			return
		}
		fmt.Fprintf(c.out, "🏁 Scan %s %s\n", scan.ID, scan.Reason)
	}
}

func (c *console) OnDeviceDiscovered(_ scanner.Scan, dev scanner.Device) {
	if dev.Sightings == 1 {
		fmt.Fprintf(c.out, "👀 Found %s (%s) %d dBm%s\n", dev.DisplayName(), dev.Address, dev.RSSI, serviceSuffix(dev.Service))
		return
	}
	if c.limiter != nil && c.limiter.Allow() {
		fmt.Fprintf(c.out, "📶 %s (%s) %d dBm\n", dev.DisplayName(), dev.Address, dev.RSSI)
	}
}

func serviceSuffix(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return " via " + bleuuid.Format(id)
}

func printDevices(out io.Writer, devices []scanner.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(out, "😑 No devices found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tADDRESS\tNAME\tRSSI\tSEEN\tSERVICE")
	for i, d := range devices {
		service := "-"
		if d.Service != uuid.Nil {
			service = bleuuid.Format(d.Service)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n", i+1, d.Address, d.DisplayName(), d.RSSI, d.Sightings, service)
	}
	w.Flush()
}
