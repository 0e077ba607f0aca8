package spool

import (
	"database/sql"
	"fmt"
)

// Entry is a row in pending_reports.
type Entry struct {
	ID            int64
	ScanID        string
	Status        string
	Payload       []byte
	Attempts      int
	LastError     string
	CreatedAt     string
	LastAttemptAt string
}

// Enqueue stores a payload that failed delivery. Re-enqueueing the same scan
// replaces its payload and counts another attempt.
func (d *DB) Enqueue(scanID, status string, payload []byte, cause error) error {
	_, err := d.conn.Exec(
		`INSERT INTO pending_reports (scan_id, status, payload, attempts, last_error, last_attempt_at)
		 VALUES (?, ?, ?, 1, ?, datetime('now'))
		 ON CONFLICT(scan_id) DO UPDATE SET
		   status = excluded.status,
		   payload = excluded.payload,
		   attempts = pending_reports.attempts + 1,
		   last_error = excluded.last_error,
		   last_attempt_at = excluded.last_attempt_at`,
		scanID, status, payload, errString(cause),
	)
	if err != nil {
		return fmt.Errorf("enqueue report %s: %w", scanID, err)
	}
	return nil
}

// Pending returns up to limit entries, oldest first. limit <= 0 means all.
func (d *DB) Pending(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.Query(
		`SELECT id, scan_id, status, payload, attempts, last_error, created_at, last_attempt_at
		 FROM pending_reports ORDER BY id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var lastError, lastAttempt sql.NullString
		if err := rows.Scan(&e.ID, &e.ScanID, &e.Status, &e.Payload, &e.Attempts, &lastError, &e.CreatedAt, &lastAttempt); err != nil {
			return nil, fmt.Errorf("scan pending report: %w", err)
		}
		e.LastError = lastError.String
		e.LastAttemptAt = lastAttempt.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkAttempt records another failed delivery.
func (d *DB) MarkAttempt(id int64, cause error) error {
	_, err := d.conn.Exec(
		`UPDATE pending_reports
		 SET attempts = attempts + 1, last_error = ?, last_attempt_at = datetime('now')
		 WHERE id = ?`,
		errString(cause), id,
	)
	if err != nil {
		return fmt.Errorf("mark attempt %d: %w", id, err)
	}
	return nil
}

// Delete removes a delivered entry.
func (d *DB) Delete(id int64) error {
	if _, err := d.conn.Exec(`DELETE FROM pending_reports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete report %d: %w", id, err)
	}
	return nil
}

// Count returns the number of pending entries.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM pending_reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending reports: %w", err)
	}
	return n, nil
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}
