package contact

import (
	"context"
	"log/slog"
	"time"

	"curapharm/internal/adapters/storage"
	domain "curapharm/internal/domain/contact"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts a contact message.
// PRE: m has been validated and carries an ID
// POST: Message is persisted
func (s *SQLiteStore) Save(ctx context.Context, m domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_message (id, name, email, subject, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Body, m.CreatedAt.UTC().Format(timeLayout))
	return err
}

// List returns the most recent messages, newest first.
// PRE: limit > 0
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, subject, body, created_at
		 FROM contact_message ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt, m.ID)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// parseTime parses a stored timestamp, logging a warning on failure.
func parseTime(raw, msgID string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("contact: failed to parse time", "message_id", msgID, "raw", raw, "error", err)
	}
	return t
}

var _ Store = (*SQLiteStore)(nil)
