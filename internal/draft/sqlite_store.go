package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteStore keeps drafts in a device-local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an opened database whose answer_drafts table exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM answer_drafts WHERE draft_key = ?`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select draft: %w", err)
	}
	return []byte(payload), nil
}

func (s *SQLiteStore) Save(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answer_drafts (draft_key, payload, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (draft_key) DO UPDATE
		 SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		key, string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM answer_drafts WHERE draft_key = ?`, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
