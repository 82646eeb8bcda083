package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenyoneda/MultiMetaWear/internal/config"
	"github.com/kenyoneda/MultiMetaWear/internal/logger"
	"github.com/kenyoneda/MultiMetaWear/internal/store"
	"github.com/kenyoneda/MultiMetaWear/pkg/bleuuid"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
	"github.com/kenyoneda/MultiMetaWear/pkg/scanner/scannertest"
)

func TestDecode(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, decode(&out, "02 01 06 03 03 0D 18", []string{"180d"}))

	s := out.String()
	assert.Contains(t, s, "7 bytes, 2 records")
	assert.Contains(t, s, "0x01 Flags [06]")
	assert.Contains(t, s, "180d (Heart Rate)")
	assert.Contains(t, s, "accepted via 180d (Heart Rate)")
	assert.NotContains(t, s, "trailing")
}

func TestDecodeRejectedAndTruncated(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, decode(&out, "0x0201060303", []string{"1111"}))

	s := out.String()
	assert.Contains(t, s, "1 records")
	assert.Contains(t, s, "2 trailing bytes ignored [03 03]")
	assert.Contains(t, s, "No services")
	assert.Contains(t, s, "rejected")
}

func TestDecodeName(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, decode(&out, "09094d65746157656172", nil))
	assert.Contains(t, out.String(), "Name: MetaWear")
	assert.NotContains(t, out.String(), "Filter")
}

func TestDecodeBadInput(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, decode(&out, "not hex", nil))
	assert.Error(t, decode(&out, "020106", []string{"bogus"}))
}

func TestConsoleThrottlesRefreshes(t *testing.T) {
	var out bytes.Buffer
	c := newConsole(&out, 0.001)
	scan := scanner.Scan{ID: "scan"}

	c.OnDeviceDiscovered(scan, scanner.Device{Address: "AA", RSSI: -70, Sightings: 1, Service: bleuuid.MetaWear})
	c.OnDeviceDiscovered(scan, scanner.Device{Address: "AA", RSSI: -60, Sightings: 2})
	c.OnDeviceDiscovered(scan, scanner.Device{Address: "AA", RSSI: -50, Sightings: 3})

	s := out.String()
	assert.Contains(t, s, "Found Unknown device (AA) -70 dBm via 326a9000-85cb-9195-d9dd-464cfbbae75a (MetaWear)")
	assert.Contains(t, s, "-60 dBm")
	assert.NotContains(t, s, "-50 dBm")
}

func TestConsoleWithoutRefreshes(t *testing.T) {
	var out bytes.Buffer
	c := newConsole(&out, 0)
	c.OnDeviceDiscovered(scanner.Scan{}, scanner.Device{Address: "AA", RSSI: -60, Sightings: 2})
	assert.Empty(t, out.String())
}

func TestPrintDevices(t *testing.T) {
	var out bytes.Buffer
	printDevices(&out, nil)
	assert.Contains(t, out.String(), "No devices found")

	out.Reset()
	printDevices(&out, []scanner.Device{
		{Address: "AA", Name: "MetaWear", RSSI: -40, Sightings: 3, Service: bleuuid.MetaWear},
		{Address: "BB", RSSI: -80, Sightings: 1},
	})
	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[1]), "MetaWear")
	assert.Contains(t, string(lines[2]), "Unknown device")
}

func newTestWatcher(t *testing.T, radio *scannertest.FakeRadio) (*watcher, *scanner.Session) {
	t.Helper()
	session := scanner.NewSession(radio, scanner.WithClock(scannertest.NewFakeClock(time.Now())))
	t.Cleanup(session.Close)
	cfg := config.Defaults().Watch.Breaker
	return newWatcher(session, scanner.FilterSet{}, cfg, logger.Discard()), session
}

func TestWatcherSkipsWhileScanning(t *testing.T) {
	radio := scannertest.NewFakeRadio()
	w, session := newTestWatcher(t, radio)

	w.tick()
	assert.Equal(t, scanner.Scanning, session.State())
	w.tick()
	w.tick()
	w.tick()

	assert.Equal(t, 1, radio.Starts())
	assert.Equal(t, gobreaker.StateClosed, w.breaker.State())
}

func TestWatcherOpensBreaker(t *testing.T) {
	radio := scannertest.NewFakeRadio()
	radio.FailStart(errors.New("adapter disabled"))
	w, session := newTestWatcher(t, radio)

	for range config.Defaults().Watch.Breaker.MaxFailures {
		w.tick()
	}
	assert.Equal(t, gobreaker.StateOpen, w.breaker.State())

	// the radio recovered but the breaker keeps it untouched until the timeout
	radio.FailStart(nil)
	w.tick()
	assert.Zero(t, radio.Starts())
	assert.Equal(t, scanner.Idle, session.State())
}

func TestHistory(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, history(ctx, &out, db, "", 10))
	assert.Contains(t, out.String(), "No scans recorded")

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	scan := scanner.Scan{
		ID:        "01HX0000000000000000000001",
		Filter:    scanner.NewFilterSet(bleuuid.MetaWear),
		StartedAt: start,
		Deadline:  start.Add(10 * time.Second),
		EndedAt:   start.Add(10 * time.Second),
		Reason:    scanner.StopExpired,
	}
	require.NoError(t, db.SaveScan(ctx, scan))
	require.NoError(t, db.SaveDevice(ctx, scan.ID, scanner.Device{Address: "AA", Name: "MetaWear", RSSI: -50, FirstSeen: start, LastSeen: start, Sightings: 1}))

	out.Reset()
	require.NoError(t, history(ctx, &out, db, "", 10))
	assert.Contains(t, out.String(), scan.ID)
	assert.Contains(t, out.String(), "10s")
	assert.Contains(t, out.String(), "expired")

	out.Reset()
	require.NoError(t, history(ctx, &out, db, scan.ID, 10))
	assert.Contains(t, out.String(), "MetaWear")

	assert.True(t, errors.Is(history(ctx, &out, db, "missing", 10), store.ErrScanNotFound))
}

func TestConsoleReportsRadioFailure(t *testing.T) {
	var out bytes.Buffer
	c := newConsole(&out, 0)

	c.OnScanStateChanged(scanner.Scan{ID: "scan", Reason: scanner.StopExpired}, scanner.Idle)
	assert.Contains(t, out.String(), "Scan scan expired")

	out.Reset()
	c.OnScanStateChanged(scanner.Scan{
		ID:     "scan",
		Reason: scanner.StopFailed,
		Err:    &scanner.RadioError{Op: "scan", Err: errors.New("org.bluez.Error.NotReady")},
	}, scanner.Idle)
	assert.Contains(t, out.String(), "Scan scan failed: radio unavailable: scan: org.bluez.Error.NotReady")
}
