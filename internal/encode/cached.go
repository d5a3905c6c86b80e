package encode

import (
	"context"
	"fmt"

	"github.com/quarrylabs/strata/internal/store"
)

// backend is the encoder surface Cached wraps.
type backend interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Cached wraps an encoder with the sqlite embedding cache. Cache hits skip
// the backend entirely; misses are encoded in a single batch and written
// back. Input order is preserved.
type Cached struct {
	inner backend
	cache *store.Cache
}

// NewCached wraps inner with cache.
func NewCached(inner backend, cache *store.Cache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

// Model returns the wrapped encoder's model name.
func (c *Cached) Model() string {
	return c.inner.Model()
}

// Encode returns one embedding vector per input text, in input order.
func (c *Cached) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	model := c.inner.Model()
	vectors := make([][]float32, len(texts))
	hashes := make([]string, len(texts))

	var missing []int
	for i, text := range texts {
		hashes[i] = store.HashText(text)
		vec, ok, err := c.cache.Get(ctx, model, hashes[i])
		if err != nil {
			return nil, err
		}
		if ok {
			vectors[i] = vec
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	batch := make([]string, len(missing))
	for i, idx := range missing {
		batch[i] = texts[idx]
	}
	encoded, err := c.inner.Encode(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(encoded) != len(batch) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(encoded))
	}

	for i, idx := range missing {
		vectors[idx] = encoded[i]
		if err := c.cache.Put(ctx, model, hashes[idx], encoded[i]); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}
