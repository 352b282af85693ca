package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/confsync/internal/models"
)

// Get retrieves object by key
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT data FROM objects WHERE key = ?`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return data, nil
}

// Put creates or replaces object
func (s *Storage) Put(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO objects (key, data, size, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			updated_at = excluded.updated_at
	`

	if data == nil {
		data = []byte{}
	}

	_, err := s.db.ExecContext(ctx, query, key, data, len(data), timeToMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}

	return nil
}

// Delete removes object by key
func (s *Storage) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM objects WHERE key = ?`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// List returns keys with the given prefix in lexicographic order
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	// substr вместо LIKE: ключи могут содержать '%' и '_'
	query := `
		SELECT key FROM objects
		WHERE substr(key, 1, ?) = ?
		ORDER BY key
	`

	rows, err := s.db.QueryContext(ctx, query, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan object key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return keys, nil
}

// TotalSize returns the number of stored objects and their total size in bytes
func (s *Storage) TotalSize(ctx context.Context) (int, int64, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM objects`

	var (
		count int
		size  int64
	)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count, &size); err != nil {
		return 0, 0, fmt.Errorf("failed to count objects: %w", err)
	}

	return count, size, nil
}
