package draft

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps drafts in the answer_drafts table. Meant for kiosk
// deployments where several exam terminals share one database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM answer_drafts WHERE draft_key = $1`, key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select draft: %w", err)
	}
	return payload, nil
}

// Save UPSERTs the draft, creating or replacing it without locking.
func (s *PostgresStore) Save(ctx context.Context, key string, payload []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO answer_drafts (draft_key, payload, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (draft_key) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = NOW()`,
		key, string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM answer_drafts WHERE draft_key = $1`, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
