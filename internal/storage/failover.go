package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// FailoverStore reads from a fast primary (redis) and falls back to a
// durable store (sqlite) when the primary misbehaves. Writes always hit
// the fallback; the primary is written best-effort while healthy. After
// a failure the primary is left alone for a cooldown before a recovery
// attempt.
type FailoverStore struct {
	primary  Store
	fallback Store
	cooldown time.Duration
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

// NewFailoverStore pairs a primary with a durable fallback.
func NewFailoverStore(primary, fallback Store, cooldown time.Duration, logger *zerolog.Logger) *FailoverStore {
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		cooldown: cooldown,
		logger:   logger,
	}
}

// primaryUsable reports whether the primary should be tried, flipping
// back to healthy when the cooldown has elapsed.
func (s *FailoverStore) primaryUsable() bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCheck) < s.cooldown {
		return false
	}
	s.lastCheck = time.Now()
	return true
}

func (s *FailoverStore) markDown(err error) {
	if s.isDown.CompareAndSwap(false, true) {
		s.logger.Warn().Err(err).Msg("primary store down, serving from fallback")
	}
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()
}

func (s *FailoverStore) markUp() {
	if s.isDown.CompareAndSwap(true, false) {
		s.logger.Info().Msg("primary store recovered")
	}
}

func (s *FailoverStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	if s.primaryUsable() {
		found, err := s.primary.Get(ctx, key, dest)
		if err == nil {
			s.markUp()
			if found {
				return true, nil
			}
			// Absent in primary: the fallback is the store of record.
			return s.fallback.Get(ctx, key, dest)
		}
		s.markDown(err)
	}
	return s.fallback.Get(ctx, key, dest)
}

func (s *FailoverStore) Set(ctx context.Context, key string, value any) error {
	if s.primaryUsable() {
		if err := s.primary.Set(ctx, key, value); err != nil {
			s.markDown(err)
		} else {
			s.markUp()
		}
	}
	return s.fallback.Set(ctx, key, value)
}

func (s *FailoverStore) Delete(ctx context.Context, key string) error {
	if s.primaryUsable() {
		if err := s.primary.Delete(ctx, key); err != nil {
			s.markDown(err)
		} else {
			s.markUp()
		}
	}
	return s.fallback.Delete(ctx, key)
}

// Ping reports health of the fallback; the primary stays optional.
func (s *FailoverStore) Ping(ctx context.Context) error {
	return s.fallback.Ping(ctx)
}

func (s *FailoverStore) Close() error {
	err := s.primary.Close()
	if ferr := s.fallback.Close(); ferr != nil {
		return ferr
	}
	return err
}
