package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SaveState writes one logical collection back in full under its key
func (db *DB) SaveState(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal state %q: %w", key, err)
	}

	_, err = db.conn.Exec(
		"INSERT INTO app_state (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, string(data), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}
	return nil
}

// LoadState reads one collection into out. It returns false when the key has
// never been written, letting the caller fall back to defaults.
func (db *DB) LoadState(key string, out any) (bool, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM app_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load state %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("failed to parse state %q: %w", key, err)
	}
	return true, nil
}
