package parish

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	cache "github.com/krisalay/datacache"
	"github.com/krisalay/datacache/engine"
)

// ErrUnknownKey is returned by Invalidate for keys no store owns.
var ErrUnknownKey = errors.New("unknown cache key")

// Site holds one typed store per kind of content, all fetching through
// the same engine.
type Site struct {
	src *Source

	Content   *cache.Store[Content]
	MassTimes *cache.Store[[]MassTime]
	Churches  *cache.Store[Church]
}

// NewSite creates the stores. Call Close on shutdown.
func NewSite(src *Source, shards int, e *engine.CacheEngine) *Site {
	return &Site{
		src:       src,
		Content:   cache.NewStore[Content](shards, e),
		MassTimes: cache.NewStore[[]MassTime](shards, e),
		Churches:  cache.NewStore[Church](shards, e),
	}
}

// Source returns the content source the fetchers read.
func (s *Site) Source() *Source { return s.src }

// LoadContent returns the cached home page content.
func (s *Site) LoadContent(ctx context.Context) (Content, error) {
	return s.Content.GetOrFetch(ctx, ContentKey, ContentFetcher(s.src))
}

// LoadMassTimes returns the cached Mass schedule.
func (s *Site) LoadMassTimes(ctx context.Context) ([]MassTime, error) {
	return s.MassTimes.GetOrFetch(ctx, MassTimesKey, MassTimesFetcher(s.src))
}

// LoadChurch returns the cached church id.
func (s *Site) LoadChurch(ctx context.Context, id string) (Church, error) {
	return s.Churches.GetOrFetch(ctx, EntityKey(id), ChurchFetcher(s.src, id))
}

// Load fetches whatever key names and returns it as an untyped value.
func (s *Site) Load(ctx context.Context, key string) (any, error) {
	switch key {
	case ContentKey:
		return s.LoadContent(ctx)
	case MassTimesKey:
		return s.LoadMassTimes(ctx)
	}
	if id, ok := ParseEntityKey(key); ok {
		return s.LoadChurch(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

/*
Invalidate routes each key to the store that owns it. With no keys every
store is cleared and the shared engine records a single clear. Unknown keys
are reported after the known ones are dropped.
*/
func (s *Site) Invalidate(keys ...string) error {
	if len(keys) == 0 {
		s.Content.Purge()
		s.MassTimes.Purge()
		s.Churches.Purge()
		s.Content.Engine().OnClear()
		return nil
	}

	var errs []error
	for _, key := range keys {
		switch {
		case key == ContentKey:
			s.Content.Invalidate(key)
		case key == MassTimesKey:
			s.MassTimes.Invalidate(key)
		default:
			if _, ok := ParseEntityKey(key); ok {
				s.Churches.Invalidate(key)
				continue
			}
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownKey, key))
		}
	}
	return errors.Join(errs...)
}

// Warm loads the content, the schedule and every church concurrently.
func (s *Site) Warm(ctx context.Context) error {
	churches, err := s.src.Churches(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.LoadContent(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.LoadMassTimes(ctx)
		return err
	})
	for _, c := range churches {
		g.Go(func() error {
			_, err := s.LoadChurch(ctx, c.ID)
			return err
		})
	}
	return g.Wait()
}

// Keys returns every cached key across the stores, sorted.
func (s *Site) Keys() []string {
	keys := slices.Concat(s.Content.Keys(), s.MassTimes.Keys(), s.Churches.Keys())
	slices.Sort(keys)
	return keys
}

// Close closes every store.
func (s *Site) Close() {
	s.Content.Close()
	s.MassTimes.Close()
	s.Churches.Close()
}
