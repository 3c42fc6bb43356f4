package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DoyleJ11/versus-room/internal/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS room_snapshots (
		code       text PRIMARY KEY,
		data       jsonb NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)
`

// SnapshotsStore keeps one row per room in room_snapshots.
type SnapshotsStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotsStore(pool *pgxpool.Pool) *SnapshotsStore {
	return &SnapshotsStore{pool: pool}
}

// Migrate creates the snapshot table if it does not exist.
func (s *SnapshotsStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate room_snapshots: %w", err)
	}
	return nil
}

func (s *SnapshotsStore) Load(ctx context.Context, code string) ([]byte, error) {
	const q = `SELECT data FROM room_snapshots WHERE code = $1`

	var data []byte
	if err := s.pool.QueryRow(ctx, q, code).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot %s: %w", code, err)
	}
	return data, nil
}

func (s *SnapshotsStore) Save(ctx context.Context, code string, data []byte) error {
	const q = `
		INSERT INTO room_snapshots (code, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (code)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, q, code, string(data)); err != nil {
		return fmt.Errorf("save snapshot %s: %w", code, err)
	}
	return nil
}

func (s *SnapshotsStore) Delete(ctx context.Context, code string) error {
	const q = `DELETE FROM room_snapshots WHERE code = $1`
	if _, err := s.pool.Exec(ctx, q, code); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", code, err)
	}
	return nil
}

var _ store.Store = (*SnapshotsStore)(nil)
