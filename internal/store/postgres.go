package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists documents in a single (collection, id) keyed table.
// The in-memory services stay authoritative; the table is only read back in
// full at startup.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrPersistence, err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection text NOT NULL,
			id         text NOT NULL,
			doc        jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: init schema: %v", ErrPersistence, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, doc FROM documents WHERE collection = $1", collection)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrPersistence, collection, err)
	}
	defer rows.Close()
	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrPersistence, collection, err)
		}
		out[id] = json.RawMessage(doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrPersistence, collection, err)
	}
	return out, nil
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (collection, id, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, collection, id, doc)
	if err != nil {
		return fmt.Errorf("%w: put %s/%s: %v", ErrPersistence, collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", collection, id)
	if err != nil {
		return fmt.Errorf("%w: delete %s/%s: %v", ErrPersistence, collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
