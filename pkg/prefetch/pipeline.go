package prefetch

import (
	"context"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/glasswing/content-cache/pkg/config"
	"github.com/glasswing/content-cache/pkg/content"
	"github.com/glasswing/content-cache/pkg/prometheus/metrics"
)

// HostClass picks the fetch concurrency/delay policy for a media URL's
// origin host.
type HostClass string

const (
	HostGeneric     HostClass = "generic"
	HostRateLimited HostClass = "rateLimited"
)

// Task is one URL to fetch within a batch. Tasks are consumed once and
// discarded after persisting or failing; there is no retry inside a batch —
// a failed fetch waits for the owning entity's next refresh.
type Task struct {
	URL       string
	HostClass HostClass
}

// Stats summarizes one processed batch.
type Stats struct {
	Fetched int64
	Skipped int64
	Failed  int64
}

// Pipeline fetches a batch of referenced media URLs: dedupe by URL, classify
// by host, skip already-persisted content hashes, then fetch generic hosts
// with a wide bounded pool and rate-limited hosts with a narrow pool and a
// mandatory delay between successive small batches.
type Pipeline struct {
	cfg      config.Prefetch
	fetcher  content.MediaFetcher
	store    *Store
	patterns []string
	pacer    *rate.Limiter
}

func New(cfg config.Prefetch, fetcher content.MediaFetcher, store *Store) *Pipeline {
	cfg = cfg.WithDefaults()

	var patterns []string
	for _, p := range strings.Split(cfg.RateLimitedHosts, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			patterns = append(patterns, p)
		}
	}

	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		patterns: patterns,
		pacer:    rate.NewLimiter(rate.Every(cfg.RateLimitedDelay), 1),
	}
}

// Process runs one batch to completion. Individual fetch failures are logged
// and dropped; they never fail the batch.
func (p *Pipeline) Process(ctx context.Context, urls []string) Stats {
	var stats Stats

	generic, limited := p.partition(urls, &stats)
	if len(generic)+len(limited) == 0 {
		return stats
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.GenericWorkers)
	for _, task := range generic {
		task := task
		g.Go(func() error {
			p.fetchOne(gctx, task, &stats)
			return nil
		})
	}
	_ = g.Wait()

	p.processRateLimited(ctx, limited, &stats)

	log.Info().Msgf(
		"[prefetch] batch done: %d fetched, %d skipped, %d failed (store holds %d artifacts)",
		stats.Fetched, stats.Skipped, stats.Failed, p.store.Len(),
	)
	return stats
}

// processRateLimited walks small sub-batches with the narrow pool, waiting on
// the pacer between them to stay under third-party limits.
func (p *Pipeline) processRateLimited(ctx context.Context, tasks []Task, stats *Stats) {
	size := p.cfg.RateLimitedBatchSize
	for from := 0; from < len(tasks); from += size {
		if err := p.pacer.Wait(ctx); err != nil {
			return
		}

		to := min(from+size, len(tasks))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.RateLimitedWorkers)
		for _, task := range tasks[from:to] {
			task := task
			g.Go(func() error {
				p.fetchOne(gctx, task, stats)
				return nil
			})
		}
		_ = g.Wait()
	}
}

func (p *Pipeline) fetchOne(ctx context.Context, task Task, stats *Stats) {
	body, _, err := p.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		metrics.MediaFetches.WithLabelValues(string(task.HostClass), "error").Inc()
		log.Warn().Msgf("[prefetch] dropping %s: %s", task.URL, err)
		atomic.AddInt64(&stats.Failed, 1)
		return
	}
	if err = p.store.Save(task.URL, body); err != nil {
		metrics.MediaFetches.WithLabelValues(string(task.HostClass), "error").Inc()
		log.Err(err).Msgf("[prefetch] failed to persist %s", task.URL)
		atomic.AddInt64(&stats.Failed, 1)
		return
	}
	metrics.MediaFetches.WithLabelValues(string(task.HostClass), "success").Inc()
	atomic.AddInt64(&stats.Fetched, 1)
}

// partition dedupes the batch by URL, drops already-persisted artifacts and
// splits the remainder by host class.
func (p *Pipeline) partition(urls []string, stats *Stats) (generic, limited []Task) {
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		if p.store.Has(u) {
			metrics.MediaFetches.WithLabelValues(string(p.Classify(u)), "skipped").Inc()
			stats.Skipped++
			continue
		}

		task := Task{URL: u, HostClass: p.Classify(u)}
		if task.HostClass == HostRateLimited {
			limited = append(limited, task)
		} else {
			generic = append(generic, task)
		}
	}
	return generic, limited
}

// Classify matches the URL's host against the configured pattern table.
func (p *Pipeline) Classify(rawURL string) HostClass {
	u, err := url.Parse(rawURL)
	if err != nil {
		return HostGeneric
	}
	host := strings.ToLower(u.Hostname())
	for _, pattern := range p.patterns {
		if strings.Contains(host, pattern) {
			return HostRateLimited
		}
	}
	return HostGeneric
}
