package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// StateStore keeps workbench state documents as JSONB, one row per owner
// and key.
type StateStore struct {
	client *PostgresClient
	owner  string
}

func NewStateStore(client *PostgresClient, owner string) *StateStore {
	return &StateStore{client: client, owner: owner}
}

// Load returns the stored document, or nil when nothing was saved yet.
func (s *StateStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.client.pool.QueryRow(ctx, `
		SELECT data FROM workbench_state WHERE owner = $1 AND state_key = $2
	`, s.owner, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load state %s: %w", key, err)
	}
	return data, nil
}

func (s *StateStore) Save(ctx context.Context, key string, data []byte) error {
	tx, err := s.client.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO workbench_state (owner, state_key, data, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (owner, state_key)
		DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, s.owner, key, string(data))
	if err != nil {
		return fmt.Errorf("failed to save state %s: %w", key, err)
	}

	return tx.Commit(ctx)
}
