package prefetch

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/zeebo/xxh3"

	"github.com/glasswing/content-cache/pkg/config"
)

// Store persists fetched media bytes keyed by the content hash of the source
// URL. The address is computable from the URL alone, so a batch can skip
// already-persisted artifacts before fetching anything.
type Store struct {
	dir string
}

func NewStore(cfg config.Prefetch) (*Store, error) {
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: cfg.MediaDir}, nil
}

// Has reports whether a local artifact already exists for the URL.
func (s *Store) Has(rawURL string) bool {
	_, err := os.Stat(s.Path(rawURL))
	return err == nil
}

// Save writes the artifact through a temporary file and an atomic rename,
// matching the entity cache's replacement discipline.
func (s *Store) Save(rawURL string, body []byte) error {
	target := s.Path(rawURL)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// Path maps a URL to its content-addressed location: xxh3 of the full URL
// plus the URL's own extension when it has one.
func (s *Store) Path(rawURL string) string {
	name := strconv.FormatUint(xxh3.HashString(rawURL), 16)
	if u, err := url.Parse(rawURL); err == nil {
		name += path.Ext(u.Path)
	}
	return filepath.Join(s.dir, name)
}

// Len counts persisted artifacts, for operability logging.
func (s *Store) Len() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	return len(entries)
}

// Purge removes every persisted artifact, reporting how many went away.
// Purged URLs are re-fetched on their entities' next refresh.
func (s *Store) Purge() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	var (
		purged int
		errs   *multierror.Error
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err = os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		purged++
	}
	return purged, errs.ErrorOrNil()
}
