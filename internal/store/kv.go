package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/safar/storefront/internal/database"
)

// KVStore keeps small JSON documents by key. It backs the cart and
// wishlist state.
type KVStore struct {
	db *sqlx.DB
}

func NewKVStore(db *sqlx.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = $1`, key)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrKeyNotFound
		}
		return nil, fmt.Errorf("get kv entry: %w", err)
	}

	return value, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("set kv entry: %w", err)
	}

	return nil
}
