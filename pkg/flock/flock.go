package flock

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/glasswing/content-cache/pkg/config"
)

// Locker is the cross-process mutual-exclusion contract for cache writers:
// acquire-or-skip, never acquire-and-block. A busy resource means "don't
// cache this round", preserving liveness over strict consistency.
type Locker interface {
	TryAcquire(key string) bool
	Release(key string)
}

// FileLocker implements Locker with one lock artifact per resource key in a
// dedicated lock namespace, created with an atomic create-if-absent primitive.
// A lock older than the staleness timeout is considered abandoned by a
// crashed holder and is forcibly broken; the narrow window where two writers
// could interleave is acceptable because cache writes are idempotent
// full-entry replacements.
type FileLocker struct {
	dir        string
	staleAfter time.Duration
	clk        clock.Clock
}

func NewFileLocker(cfg config.CacheStore, clk clock.Clock) (*FileLocker, error) {
	if err := os.MkdirAll(cfg.LockDir, 0o755); err != nil {
		return nil, err
	}
	return &FileLocker{dir: cfg.LockDir, staleAfter: cfg.LockStaleAfter, clk: clk}, nil
}

// TryAcquire attempts to create the lock artifact exclusively. On contention
// it checks the holder's age and breaks the lock once if it is stale,
// retrying a single time.
func (l *FileLocker) TryAcquire(key string) bool {
	if l.create(key) {
		return true
	}

	path := l.path(key)
	info, err := os.Stat(path)
	if err != nil {
		// The holder released between our create and stat; one more try.
		return l.create(key)
	}

	if l.clk.Now().Sub(info.ModTime()) < l.staleAfter {
		log.Debug().Msgf("[flock] %s is held by another writer, skipping", key)
		return false
	}

	log.Warn().Msgf("[flock] breaking stale lock %s (held since %s)", key, info.ModTime())
	if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Err(err).Msgf("[flock] failed to break stale lock %s", key)
		return false
	}
	return l.create(key)
}

// Release removes the lock artifact. Releasing a lock that is already gone
// is not an error.
func (l *FileLocker) Release(key string) {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		log.Err(err).Msgf("[flock] failed to release %s", key)
	}
}

func (l *FileLocker) create(key string) bool {
	f, err := os.OpenFile(l.path(key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return false
	}
	// Content is the acquisition timestamp, for operators inspecting the dir.
	_, _ = f.WriteString(strconv.FormatInt(l.clk.Now().Unix(), 10))
	_ = f.Close()
	return true
}

func (l *FileLocker) path(key string) string {
	return filepath.Join(l.dir, key+".lock")
}
