// Package store keeps a SQLite history of scan sessions and the devices they
// discovered.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/kenyoneda/MultiMetaWear/pkg/scanner"
)

// fixed width so that stored times sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrScanNotFound is returned by GetScan for an unknown scan id.
var ErrScanNotFound = errors.New("scan not found")

// ScanRecord is a stored scan session.
type ScanRecord struct {
	ID        string
	Filter    string
	StartedAt time.Time
	Deadline  time.Time
	EndedAt   time.Time // zero while the scan is running or if it was never closed out
	Reason    string
	Devices   int
}

// Store persists scans and sightings in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs the schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open history db")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate history db")
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS scans (
			id         TEXT PRIMARY KEY,
			filter     TEXT NOT NULL,
			started_at TEXT NOT NULL,
			deadline   TEXT NOT NULL,
			ended_at   TEXT NOT NULL DEFAULT '',
			reason     TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS sightings (
			scan_id    TEXT NOT NULL REFERENCES scans(id),
			address    TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			rssi       INTEGER NOT NULL,
			service    TEXT NOT NULL DEFAULT '',
			first_seen TEXT NOT NULL,
			last_seen  TEXT NOT NULL,
			sightings  INTEGER NOT NULL,
			PRIMARY KEY (scan_id, address)
		);
		CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveScan inserts scan, or updates its end time and reason if it exists.
func (s *Store) SaveScan(ctx context.Context, scan scanner.Scan) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, filter, started_at, deadline, ended_at, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET ended_at = excluded.ended_at, reason = excluded.reason`,
		scan.ID, scan.Filter.String(),
		formatTime(scan.StartedAt), formatTime(scan.Deadline), formatTime(scan.EndedAt),
		scan.Reason.String(),
	)
	return errors.Wrapf(err, "save scan %s", scan.ID)
}

// SaveDevice records the latest state of dev for scanID.
func (s *Store) SaveDevice(ctx context.Context, scanID string, dev scanner.Device) error {
	service := ""
	if dev.Service != uuid.Nil {
		service = dev.Service.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sightings (scan_id, address, name, rssi, service, first_seen, last_seen, sightings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scan_id, address) DO UPDATE SET
			name = excluded.name,
			rssi = excluded.rssi,
			service = excluded.service,
			last_seen = excluded.last_seen,
			sightings = excluded.sightings`,
		scanID, dev.Address, dev.Name, dev.RSSI, service,
		formatTime(dev.FirstSeen), formatTime(dev.LastSeen), dev.Sightings,
	)
	return errors.Wrapf(err, "save device %s", dev.Address)
}

const scanColumns = `
	s.id, s.filter, s.started_at, s.deadline, s.ended_at, s.reason,
	(SELECT COUNT(*) FROM sightings d WHERE d.scan_id = s.id)`

// GetScan returns the scan stored under id.
func (s *Store) GetScan(ctx context.Context, id string) (ScanRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT"+scanColumns+" FROM scans s WHERE s.id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return ScanRecord{}, errors.Wrap(ErrScanNotFound, id)
	}
	return rec, err
}

// ListScans returns up to limit scans, most recent first. A limit <= 0
// returns every scan.
func (s *Store) ListScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT"+scanColumns+" FROM scans s ORDER BY s.started_at DESC, s.id DESC LIMIT ?", limit)
	if err != nil {
		return nil, errors.Wrap(err, "list scans")
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListDevices returns the devices recorded for scanID in first-seen order.
func (s *Store) ListDevices(ctx context.Context, scanID string) ([]scanner.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT address, name, rssi, service, first_seen, last_seen, sightings
		FROM sightings WHERE scan_id = ? ORDER BY first_seen, rowid`, scanID)
	if err != nil {
		return nil, errors.Wrap(err, "list devices")
	}
	defer rows.Close()

	var out []scanner.Device
	for rows.Next() {
		var d scanner.Device
		var service, first, last string
		if err := rows.Scan(&d.Address, &d.Name, &d.RSSI, &service, &first, &last, &d.Sightings); err != nil {
			return nil, err
		}
		if service != "" {
			if d.Service, err = uuid.Parse(service); err != nil {
				return nil, errors.Wrapf(err, "device %s service", d.Address)
			}
		}
		d.FirstSeen = parseTime(first)
		d.LastSeen = parseTime(last)
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ScanRecord, error) {
	var r ScanRecord
	var started, deadline, ended string
	if err := row.Scan(&r.ID, &r.Filter, &started, &deadline, &ended, &r.Reason, &r.Devices); err != nil {
		return ScanRecord{}, err
	}
	r.StartedAt = parseTime(started)
	r.Deadline = parseTime(deadline)
	r.EndedAt = parseTime(ended)
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
