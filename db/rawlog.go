package db

import (
	"fmt"
	"time"
)

// RawLog is one immutable capture of a raw user utterance. Rows are only
// ever changed by an explicit user edit or delete of the log line itself.
type RawLog struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// AppendRawLog records one user utterance
func (db *DB) AppendRawLog(text string, ts time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO raw_logs (timestamp, text) VALUES (?, ?)",
		ts, text,
	)
	if err != nil {
		return fmt.Errorf("failed to append raw log: %w", err)
	}
	return nil
}

// ListRawLogs retrieves raw log lines, newest first
func (db *DB) ListRawLogs(limit, offset int) ([]*RawLog, error) {
	rows, err := db.conn.Query(
		"SELECT id, timestamp, text FROM raw_logs ORDER BY timestamp DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw logs: %w", err)
	}
	defer rows.Close()

	var logs []*RawLog
	for rows.Next() {
		var l RawLog
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Text); err != nil {
			return nil, fmt.Errorf("failed to scan raw log: %w", err)
		}
		logs = append(logs, &l)
	}

	return logs, nil
}

// UpdateRawLog rewrites one log line's text
func (db *DB) UpdateRawLog(id int64, text string) error {
	_, err := db.conn.Exec("UPDATE raw_logs SET text = ? WHERE id = ?", text, id)
	if err != nil {
		return fmt.Errorf("failed to update raw log: %w", err)
	}
	return nil
}

// DeleteRawLog deletes one log line
func (db *DB) DeleteRawLog(id int64) error {
	_, err := db.conn.Exec("DELETE FROM raw_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete raw log: %w", err)
	}
	return nil
}

// SearchResult represents a full-text search hit in the raw log
type SearchResult struct {
	Log     *RawLog
	Snippet string
}

// SearchRawLogs performs full-text search over the raw log
func (db *DB) SearchRawLogs(query string, limit int) ([]*SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT r.id, r.timestamp, r.text,
		       snippet(raw_logs_fts, 0, '<mark>', '</mark>', '...', 32) as snippet
		FROM raw_logs_fts
		JOIN raw_logs r ON raw_logs_fts.rowid = r.id
		WHERE raw_logs_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search raw logs: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var l RawLog
		var snippet string
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Text, &snippet); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, &SearchResult{Log: &l, Snippet: snippet})
	}

	return results, nil
}
