// Package store provides the SQLite embedding cache.
//
// Encoding dominates fit time for any real corpus, so vectors are cached by
// (model, content hash) and reused across runs. Only encoder output is ever
// persisted; fitted model state is not.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS embeddings (
	model        TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	vector       BLOB NOT NULL,
	dimensions   INTEGER NOT NULL,
	PRIMARY KEY (model, content_hash)
);`

// Cache is a sqlite-backed embedding cache.
type Cache struct {
	db *sql.DB
}

// Open opens the cache database at path, creating it and its parent
// directory if needed.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached vector for (model, hash), or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, model, hash string) ([]float32, bool, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT vector FROM embeddings WHERE model = ? AND content_hash = ?",
		model, hash,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached embedding: %w", err)
	}
	return bytesToFloat32(blob), true, nil
}

// Put stores a vector for (model, hash), replacing any existing entry.
func (c *Cache) Put(ctx context.Context, model, hash string, vector []float32) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO embeddings (model, content_hash, vector, dimensions) VALUES (?, ?, ?, ?)
		 ON CONFLICT(model, content_hash) DO UPDATE SET vector = excluded.vector, dimensions = excluded.dimensions`,
		model, hash, float32ToBytes(vector), len(vector),
	)
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	return nil
}

// HashText computes the SHA-256 content hash used as the cache key.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", h)
}

// float32ToBytes converts a float32 slice to a byte slice (little-endian).
func float32ToBytes(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// bytesToFloat32 converts a byte slice back to float32 slice (little-endian).
func bytesToFloat32(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
