// Package localstore persists JSON record lists under string keys, the
// server-side equivalent of the browser's local storage area the site's
// record collections live in.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curapharm/internal/adapters/storage"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// Storage failure kinds. Callers show distinct messages for each.
var (
	// ErrQuotaExceeded means the serialized payload is larger than the
	// configured quota. Nothing is written; the previous value remains.
	ErrQuotaExceeded = errors.New("storage capacity exceeded, delete some records")

	// ErrCorruptData means the persisted value could not be parsed. The
	// caller falls back to seed records and warns the user once.
	ErrCorruptData = errors.New("stored data is corrupt")
)

// Store reads and writes keyed JSON lists in the local_store table.
type Store struct {
	db    storage.SQLDB
	quota int // max serialized bytes per key, 0 = unlimited
}

// New creates a Store with the given per-key byte quota.
func New(db storage.SQLDB, quota int) *Store {
	return &Store{db: db, quota: quota}
}

// LoadList reads the list stored under key.
// POST: absent key -> found=false, nil error; unparsable payload ->
// found=false, ErrCorruptData; parsable but not a list -> found=false,
// nil error (silent seed fallback); otherwise the raw elements in order.
func (s *Store) LoadList(ctx context.Context, key string) ([]json.RawMessage, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_store WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading %s: %w", key, err)
	}

	if !json.Valid([]byte(raw)) {
		slog.Warn("localstore_corrupt", "key", key, "bytes", len(raw))
		return nil, false, ErrCorruptData
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// Valid JSON that is not an array: the stored value is unusable but
		// the source treated this silently, so no corrupt signal.
		slog.Warn("localstore_not_a_list", "key", key)
		return nil, false, nil
	}
	return items, true, nil
}

// SaveList serializes v (a slice) and writes it under key.
// POST: On ErrQuotaExceeded or any other failure nothing is written; the
// previously persisted value remains.
func (s *Store) SaveList(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", key, err)
	}
	if s.quota > 0 && len(payload) > s.quota {
		slog.Warn("localstore_quota_exceeded", "key", key, "bytes", len(payload), "quota", s.quota)
		return ErrQuotaExceeded
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO local_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, string(payload), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// FailureMessage maps a storage error to its user-facing message.
func FailureMessage(err error) string {
	if errors.Is(err, ErrQuotaExceeded) {
		return ErrQuotaExceeded.Error()
	}
	return "saving failed, try again"
}
