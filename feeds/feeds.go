// Package feeds contains the format adapters, the image resolver and the
// ingestion orchestrator that ties them to the store.
package feeds

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/feedhaven/feedhaven/models"
	"github.com/feedhaven/feedhaven/store"
)

// Number of parallel requests during a bulk refresh
const parallelFetch = 4

// RefreshStage marks the outcome of one source during a bulk refresh
type RefreshStage int

const (
	// StageCompleted means the source was fetched and stored
	StageCompleted RefreshStage = iota
	// StageFailed means the source's fetch or parse failed; the batch continues
	StageFailed
)

// RefreshProgress is delivered once per source during a bulk refresh
type RefreshProgress struct {
	SourceID  int64
	URI       string
	Stage     RefreshStage
	Completed int
	Total     int
}

// ProgressFunc receives incremental bulk-refresh progress
type ProgressFunc func(progress RefreshProgress)

// Options configures the ingestion manager. Zero values fall back to the
// defaults.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	ParallelFetch int
}

// Feeds is the ingestion orchestrator: it selects the matching format
// adapter, resolves artwork when needed and hands the normalized result to
// the store.
type Feeds struct {
	store    *store.Store
	client   *Client
	images   *ImageResolver
	services map[models.FeedType]FeedService
	parallel int

	// Refresh queue semaphores: at most one refresh running and one waiting
	semaphore chan int
	waiting   chan int

	// Per-source key locks serialize concurrent upserts of the same source
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates the ingestion manager over an initialized store
func New(st *store.Store, opts Options) *Feeds {
	if opts.ParallelFetch <= 0 {
		opts.ParallelFetch = parallelFetch
	}
	client := NewClient(opts.Timeout, opts.UserAgent)
	images := NewImageResolver(client)

	return &Feeds{
		store:  st,
		client: client,
		images: images,
		services: map[models.FeedType]FeedService{
			models.FeedTypeRss:  NewRSSService(client, images),
			models.FeedTypeJson: NewJSONService(client, images),
		},
		parallel:  opts.ParallelFetch,
		semaphore: make(chan int, 1),
		waiting:   make(chan int, 1),
		locks:     map[string]*sync.Mutex{},
	}
}

// Service returns the adapter for the given format. Unknown formats fall
// back to the RSS adapter.
func (f *Feeds) Service(t models.FeedType) FeedService {
	if svc, ok := f.services[t]; ok {
		return svc
	}
	return f.services[models.FeedTypeRss]
}

// DetectFormat sniffs the wire format from a fetched body: JSON Feed
// documents open with a brace, everything else is treated as XML syndication.
func DetectFormat(body string) models.FeedType {
	trimmed := strings.TrimLeftFunc(body, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\uFEFF'
	})
	if strings.HasPrefix(trimmed, "{") {
		return models.FeedTypeJson
	}
	return models.FeedTypeRss
}

// FetchAndStore fetches the document at uri, maps it through the matching
// adapter and upserts the result. When an existing source is supplied (or one
// is already stored for the uri) its stored format tag picks the adapter and
// its identity is preserved; otherwise the format is sniffed from the body.
// The fetch error propagates: ingestion cannot proceed without the document.
func (f *Feeds) FetchAndStore(ctx context.Context, uri string, existing *models.FeedSource) (*models.FeedSource, []*models.FeedEntry, error) {
	lock := f.sourceLock(uri)
	lock.Lock()
	defer lock.Unlock()

	// Resolve the stored record under the lock so two concurrent calls for
	// the same uri cannot both insert
	if existing == nil {
		existing = f.store.GetFeedSourceByURI(ctx, uri)
	}

	body, err := f.client.FetchText(ctx, uri)
	if err != nil {
		return nil, nil, err
	}

	format := models.FeedTypeUnknown
	if existing != nil {
		format = existing.FeedType
	}
	if format == models.FeedTypeUnknown {
		format = DetectFormat(body)
	}

	source := existing
	if source == nil {
		source = &models.FeedSource{URI: uri}
	}
	source, entries, err := f.Service(format).ResolveBody(ctx, body, source)
	if err != nil {
		return nil, nil, err
	}

	// Nothing may be written after a cancellation mid-fetch
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Match re-fetched entries against stored rows by external id so the
	// upsert updates instead of inserting duplicates
	f.store.MatchStoredEntries(ctx, source.ID, entries)

	rows := f.store.UpsertFeedSource(ctx, source, entries)
	log.Debug().Str("uri", uri).Int64("source_id", source.ID).Int("rows", rows).Msg("Stored feed")
	return source, entries, nil
}

// RefreshAll fetches and stores every persisted source, fanning out over a
// bounded worker pool. Per-source failures are isolated: they are reported
// through the progress callback and the batch continues. Emits the
// refresh-completed signal when the cycle ends.
func (f *Feeds) RefreshAll(ctx context.Context, progress ProgressFunc) error {
	sources := f.store.GetFeedSources(ctx)
	total := len(sources)
	log.Info().Int("count", total).Msg("Started refreshing feeds")

	if total > 0 {
		// Channels' buffer is 4x the number of workers
		jobs := make(chan models.FeedSource, f.parallel*4)
		results := make(chan refreshResult, f.parallel*4)
		for i := 1; i <= f.parallel; i++ {
			go f.refreshWorker(ctx, i, jobs, results)
		}
		go func() {
			for _, src := range sources {
				jobs <- src
			}
			close(jobs)
		}()

		for completed := 1; completed <= total; completed++ {
			res := <-results
			stage := StageCompleted
			if res.err != nil {
				stage = StageFailed
			}
			if progress != nil {
				progress(RefreshProgress{
					SourceID:  res.source.ID,
					URI:       res.source.URI,
					Stage:     stage,
					Completed: completed,
					Total:     total,
				})
			}
		}
		close(results)
	}

	f.store.NotifyRefreshCompleted()
	log.Info().Msg("Done refreshing feeds")
	return ctx.Err()
}

// QueueRefresh queues a bulk refresh and returns right away. The channel
// capacities allow at most one refresh running and one queued, so refreshes
// cannot pile up faster than they complete.
func (f *Feeds) QueueRefresh(ctx context.Context, progress ProgressFunc) {
	select {
	case f.waiting <- 1:
		break
	default:
		return
	}

	go func() {
		// Acquire the run lock (wait till we can), then release the waiting slot
		f.semaphore <- 1
		<-f.waiting
		if err := f.RefreshAll(ctx, progress); err != nil {
			log.Error().Err(err).Msg("Error while refreshing feeds")
		}
		<-f.semaphore
	}()
}

type refreshResult struct {
	source models.FeedSource
	err    error
}

// Internal worker that fetches and stores sources, in parallel. Each job is
// an owned copy of the source record; results are merged back through the
// store, never through shared mutable state.
func (f *Feeds) refreshWorker(ctx context.Context, id int, jobs <-chan models.FeedSource, results chan<- refreshResult) {
	for src := range jobs {
		owned := src
		_, _, err := f.FetchAndStore(ctx, owned.URI, &owned)
		if err != nil {
			log.Warn().Int("worker", id).Str("uri", owned.URI).Err(err).Msg("Feed refresh failed, continuing with next")
		}
		results <- refreshResult{source: owned, err: err}
	}
}

func (f *Feeds) sourceLock(key string) *sync.Mutex {
	f.locksMu.Lock()
	defer f.locksMu.Unlock()
	lock, ok := f.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[key] = lock
	}
	return lock
}
