package blobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache holds the most recent listing of a Store. Every Invalidate bumps a
// generation; SetList only stores a listing read under the current one.
type Cache interface {
	GetList(ctx context.Context) ([]Blob, error)
	Generation(ctx context.Context) (int64, error)
	SetList(ctx context.Context, generation int64, blobs []Blob) error
	Invalidate(ctx context.Context) error
}

// NoOpCache never holds anything.
type NoOpCache struct{}

func (NoOpCache) GetList(context.Context) ([]Blob, error)      { return nil, ErrCacheMiss }
func (NoOpCache) Generation(context.Context) (int64, error)    { return 0, nil }
func (NoOpCache) SetList(context.Context, int64, []Blob) error { return nil }
func (NoOpCache) Invalidate(context.Context) error             { return nil }

type cachedStore struct {
	source Store
	cache  Cache
}

// Cached serves List from cache and invalidates it on every mutation. Cache
// failures are logged and otherwise ignored.
func Cached(source Store, cache Cache) Store {
	if cache == nil {
		return source
	}
	if _, ok := cache.(NoOpCache); ok {
		return source
	}
	return &cachedStore{source: source, cache: cache}
}

func (s *cachedStore) Put(ctx context.Context, pathname string, r io.Reader, opts PutOptions) (*Blob, error) {
	blob, err := s.source.Put(ctx, pathname, r, opts)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return blob, nil
}

func (s *cachedStore) List(ctx context.Context) ([]Blob, error) {
	blobs, err := s.cache.GetList(ctx)
	if err == nil {
		return blobs, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("Failed to read blob list from cache", "error", err)
	}

	// The generation is read before the source so that a mutation landing
	// in between makes the fill below a no-op.
	generation, genErr := s.cache.Generation(ctx)
	if genErr != nil {
		slog.Warn("Failed to read blob list generation", "error", genErr)
	}

	blobs, err = s.source.List(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := s.cache.SetList(ctx, generation, blobs); err != nil {
			slog.Warn("Failed to write blob list to cache", "error", err)
		}
	}
	return blobs, nil
}

// Delete invalidates even when the source fails: the object may be gone anyway.
func (s *cachedStore) Delete(ctx context.Context, url string) error {
	err := s.source.Delete(ctx, url)
	s.invalidate(ctx)
	return err
}

func (s *cachedStore) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("Failed to invalidate blob list cache", "error", err)
	}
}
