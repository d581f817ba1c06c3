package cachestore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/glasswing/content-cache/pkg/config"
	"github.com/glasswing/content-cache/pkg/flock"
	"github.com/glasswing/content-cache/pkg/model"
	"github.com/glasswing/content-cache/pkg/prometheus/metrics"
	"github.com/glasswing/content-cache/pkg/schedule"
)

// ErrLockBusy is returned when another writer holds the per-key lock. It is
// not an error state for callers: the write is simply skipped this round.
var ErrLockBusy = errors.New("cache lock is held by another writer")

// Entry is the persisted envelope, replaced wholesale on every write and
// never mutated in place.
type Entry[T any] struct {
	Data      T         `json:"data"`
	WrittenAt time.Time `json:"writtenAt"`
}

// Store persists one JSON artifact per entity key with a per-entry timestamp,
// integrity validation on read, and file-level locking for exclusive writers.
// Reads never lock; replacement is atomic via rename.
type Store struct {
	dir   string
	locks flock.Locker
	sched *schedule.Schedule
	clk   clock.Clock
}

func New(cfg config.CacheStore, sched *schedule.Schedule, locks flock.Locker, clk clock.Clock) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: cfg.Dir, locks: locks, sched: sched, clk: clk}, nil
}

// Get returns the entity's cached value, or absent if the entry is missing,
// unreadable, fails its integrity check, or is older than the tier's cache
// expiry. I/O and parse failures never surface to the caller: absence is the
// universal "no usable cache" signal.
func Get[T model.Validatable](s *Store, e model.Entity) (T, bool) {
	var zero T
	entry, ok := read[T](s, e)
	if !ok {
		metrics.CacheMisses.WithLabelValues(e.String()).Inc()
		return zero, false
	}
	if age := s.clk.Now().Sub(entry.WrittenAt); age > s.sched.CacheExpiry(e.Tier()) {
		log.Debug().Msgf("[cachestore] %s expired (age %s)", e, age)
		metrics.CacheMisses.WithLabelValues(e.String()).Inc()
		return zero, false
	}
	metrics.CacheHits.WithLabelValues(e.String()).Inc()
	return entry.Data, true
}

// GetStale is the fallback read path: identical to Get but ignores the tier
// expiry, so an entry past its nominal lifetime is still served when the
// upstream source is unavailable.
func GetStale[T model.Validatable](s *Store, e model.Entity) (T, bool) {
	var zero T
	entry, ok := read[T](s, e)
	if !ok {
		return zero, false
	}
	return entry.Data, true
}

// Put writes the entry through a temporary artifact and an atomic rename
// under the per-key lock. If the lock cannot be acquired the write is skipped:
// caching is best-effort and the read path does not depend on every write
// succeeding.
func Put[T model.Validatable](s *Store, e model.Entity, data T) error {
	key := e.String()
	if !s.locks.TryAcquire(key) {
		metrics.LockContentions.WithLabelValues(key).Inc()
		log.Debug().Msgf("[cachestore] skipping write of %s: %s", key, ErrLockBusy)
		return ErrLockBusy
	}
	defer s.locks.Release(key)

	raw, err := json.Marshal(Entry[T]{Data: data, WrittenAt: s.clk.Now()})
	if err != nil {
		return err
	}

	tmp := s.tmpPath(e)
	if err = os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(e))
}

// Invalidate deletes the persisted entry and any leftover temporary artifact
// under the same lock discipline as writes.
func (s *Store) Invalidate(e model.Entity) error {
	key := e.String()
	if !s.locks.TryAcquire(key) {
		metrics.LockContentions.WithLabelValues(key).Inc()
		return ErrLockBusy
	}
	defer s.locks.Release(key)

	err := removeIfPresent(s.path(e))
	if tmpErr := removeIfPresent(s.tmpPath(e)); err == nil {
		err = tmpErr
	}
	return err
}

// InvalidateAll invalidates every known entity independently: a failure on
// one key never prevents invalidation of the others. It returns the entities
// actually invalidated plus the aggregated failures.
func (s *Store) InvalidateAll() ([]model.Entity, error) {
	var (
		acted []model.Entity
		errs  *multierror.Error
	)
	for _, e := range model.Entities() {
		if err := s.Invalidate(e); err != nil {
			log.Err(err).Msgf("[cachestore] failed to invalidate %s", e)
			errs = multierror.Append(errs, err)
			continue
		}
		acted = append(acted, e)
	}
	return acted, errs.ErrorOrNil()
}

func read[T model.Validatable](s *Store, e model.Entity) (Entry[T], bool) {
	var entry Entry[T]

	raw, err := os.ReadFile(s.path(e))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Msgf("[cachestore] unreadable entry %s: %s", e, err)
		}
		return entry, false
	}

	if err = json.Unmarshal(raw, &entry); err != nil {
		log.Warn().Msgf("[cachestore] corrupt entry %s: %s", e, err)
		return entry, false
	}
	if !entry.Data.Valid() {
		log.Warn().Msgf("[cachestore] entry %s failed integrity check", e)
		return entry, false
	}
	return entry, true
}

func (s *Store) path(e model.Entity) string {
	return filepath.Join(s.dir, e.String()+".json")
}

func (s *Store) tmpPath(e model.Entity) string {
	return filepath.Join(s.dir, e.String()+".json.tmp")
}

func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
