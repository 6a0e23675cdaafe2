// Package genres serves the genre facet options for the browse view. The
// list comes from the backend, is cached in sqlite and is served stale when
// the backend is unreachable.
package genres

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/vrsandeep/mango-tracker/internal/metrics"
)

// Source fetches the authoritative genre list.
type Source interface {
	Genres(ctx context.Context) ([]string, error)
}

// Cache persists the last fetched genre list.
type Cache interface {
	ReplaceGenres(names []string, fetchedAt time.Time) error
	ListGenres() ([]string, time.Time, error)
}

// defaultFetchTimeout bounds a shared backend fetch, which no single
// caller's context owns.
const defaultFetchTimeout = 10 * time.Second

type Service struct {
	source       Source
	cache        Cache
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	group        singleflight.Group

	mu        sync.Mutex
	listeners []func([]string)
}

func NewService(source Source, cache Cache, ttl time.Duration) *Service {
	return &Service{
		source:       source,
		cache:        cache,
		ttl:          ttl,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
	}
}

// OnRefresh registers fn to be called with the new list after every
// successful Refresh.
func (s *Service) OnRefresh(fn func([]string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// List returns the cached genres while they are fresh and goes to the
// backend otherwise. A backend failure falls back to whatever is cached.
func (s *Service) List(ctx context.Context) ([]string, error) {
	cached, fetchedAt, err := s.cache.ListGenres()
	if err != nil {
		log.Warnf("genres: reading cache: %v", err)
	}
	if len(cached) > 0 && s.now().Sub(fetchedAt) < s.ttl {
		metrics.GenreCacheHitsTotal.Inc()
		return cached, nil
	}

	metrics.GenreCacheMissesTotal.Inc()
	fresh, err := s.fetch(ctx)
	if err != nil {
		if len(cached) > 0 {
			log.WithError(err).Warn("genres: backend unavailable, serving stale list")
			return cached, nil
		}
		return nil, err
	}
	return fresh, nil
}

// Refresh always goes to the backend and notifies listeners on success.
func (s *Service) Refresh(ctx context.Context) ([]string, error) {
	fresh, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	listeners := append([]func([]string){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(fresh)
	}
	return fresh, nil
}

// fetch shares one backend request between concurrent callers. The request
// runs detached from the caller that started it, so a caller going away
// does not fail the others; each caller still stops waiting on its own ctx.
func (s *Service) fetch(ctx context.Context) ([]string, error) {
	ch := s.group.DoChan("genres", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		list, err := s.source.Genres(fetchCtx)
		if err != nil {
			return nil, fmt.Errorf("fetch genres: %w", err)
		}
		if err := s.cache.ReplaceGenres(list, s.now()); err != nil {
			log.Warnf("genres: updating cache: %v", err)
		}
		return list, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}
