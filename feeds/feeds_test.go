package feeds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/feedhaven/feedhaven/db"
	"github.com/feedhaven/feedhaven/models"
	"github.com/feedhaven/feedhaven/store"
)

// failingHandler fails the test on any storage error: the orchestrator tests
// only exercise fetch-side failures
type failingHandler struct {
	t *testing.T
}

func (h failingHandler) HandleError(err error) {
	h.t.Errorf("Unexpected storage error: %v", err)
}

func newTestFeeds(t *testing.T) (*Feeds, *store.Store) {
	t.Helper()
	conn, err := db.Connect(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Could not open the test database: %v", err)
	}
	st := store.New(conn, failingHandler{t})
	t.Cleanup(func() { st.Close() })
	if !st.Initialize(context.Background()) {
		t.Fatal("Could not initialize the schema")
	}
	return New(st, Options{}), st
}

// feedServer serves an RSS body at /feed.xml and a favicon, so ingestion
// (artwork resolution included) stays on the loopback interface
func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.xml":
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(sampleRSS))
		case "/favicon.ico":
			w.Write(pngBlob("favicon"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		body string
		want models.FeedType
	}{
		{"xml", "<?xml version=\"1.0\"?><rss></rss>", models.FeedTypeRss},
		{"json", `{"version": "https://jsonfeed.org/version/1.1"}`, models.FeedTypeJson},
		{"json with leading whitespace", "  \r\n\t{\"title\": \"x\"}", models.FeedTypeJson},
		{"json with byte order mark", "\uFEFF{\"title\": \"x\"}", models.FeedTypeJson},
		{"empty", "", models.FeedTypeRss},
		{"plain text", "not a feed at all", models.FeedTypeRss},
	}
	for _, c := range cases {
		if got := DetectFormat(c.body); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestServiceFallback(t *testing.T) {
	f, _ := newTestFeeds(t)
	if got := f.Service(models.FeedTypeJson).Type(); got != models.FeedTypeJson {
		t.Errorf("Expected the JSON adapter, got %v", got)
	}
	if got := f.Service(models.FeedTypeUnknown).Type(); got != models.FeedTypeRss {
		t.Errorf("Expected the RSS adapter for unknown formats, got %v", got)
	}
}

func TestFetchAndStoreIdempotent(t *testing.T) {
	f, st := newTestFeeds(t)
	ctx := context.Background()
	srv := feedServer(t)
	uri := srv.URL + "/feed.xml"

	source, entries, err := f.FetchAndStore(ctx, uri, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if source.ID <= 0 {
		t.Fatalf("Expected the source to be persisted, got id %d", source.ID)
	}
	if source.FeedType != models.FeedTypeRss {
		t.Errorf("Expected the sniffed RSS format, got %v", source.FeedType)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if !IsValidImage(source.ImageCache) {
		t.Error("Expected the artwork cache to be filled")
	}

	// Fetching the same document again updates in place
	existing := st.GetFeedSourceByURI(ctx, uri)
	if existing == nil {
		t.Fatal("Expected to find the stored source by uri")
	}
	again, _, err := f.FetchAndStore(ctx, uri, existing)
	if err != nil {
		t.Fatalf("Expected no error on re-fetch, got: %v", err)
	}
	if again.ID != source.ID {
		t.Errorf("Expected the same source identity, got %d and %d", source.ID, again.ID)
	}
	if stored := st.GetFeedEntries(ctx, source.ID); len(stored) != 2 {
		t.Fatalf("Expected 2 stored entries after re-fetch, got %d", len(stored))
	}
}

func TestFetchAndStoreJSON(t *testing.T) {
	f, st := newTestFeeds(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/feed.json":
			w.Header().Set("Content-Type", "application/feed+json")
			w.Write([]byte(sampleJSONFeed))
		case "/favicon.ico":
			w.Write(pngBlob("favicon"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	source, entries, err := f.FetchAndStore(ctx, srv.URL+"/feed.json", nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if source.FeedType != models.FeedTypeJson {
		t.Errorf("Expected the sniffed JSON format, got %v", source.FeedType)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if got := st.GetFeedSourceByURI(ctx, srv.URL+"/feed.json"); got == nil || got.FeedType != models.FeedTypeJson {
		t.Errorf("Expected the format tag to be persisted, got %v", got)
	}
}

func TestFetchAndStoreFetchError(t *testing.T) {
	f, st := newTestFeeds(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := f.FetchAndStore(ctx, srv.URL+"/feed.xml", nil)
	if err == nil {
		t.Fatal("Expected the fetch error to propagate")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected a status-carrying fetch error, got: %v", err)
	}
	if got := st.GetFeedSources(ctx); len(got) != 0 {
		t.Errorf("Expected nothing to be stored, got %d sources", len(got))
	}
}

func TestFetchAndStoreCanceled(t *testing.T) {
	f, st := newTestFeeds(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The handler cancels the caller's context mid-fetch and holds the
	// response until the client gives up
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	_, _, err := f.FetchAndStore(ctx, srv.URL+"/feed.xml", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected a canceled error, got: %v", err)
	}
	if got := st.GetFeedSources(context.Background()); len(got) != 0 {
		t.Errorf("Expected no partial writes, got %d sources", len(got))
	}
}

func TestFetchAndStoreSerializesSameSource(t *testing.T) {
	f, st := newTestFeeds(t)
	ctx := context.Background()
	srv := feedServer(t)
	uri := srv.URL + "/feed.xml"

	// Two concurrent ingestions of the same uri: the per-source lock must
	// serialize them so the second updates instead of inserting a duplicate
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.FetchAndStore(ctx, uri, nil)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("Call %d: expected no error, got: %v", i, err)
		}
	}

	sources := st.GetFeedSources(ctx)
	if len(sources) != 1 {
		t.Fatalf("Expected a single source row, got %d", len(sources))
	}
	if entries := st.GetFeedEntries(ctx, sources[0].ID); len(entries) != 2 {
		t.Fatalf("Expected 2 stored entries, got %d", len(entries))
	}
}

func TestQueueRefreshCoalesces(t *testing.T) {
	f, st := newTestFeeds(t)
	ctx := context.Background()

	block := make(chan struct{})
	started := make(chan struct{}, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-block
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	source := &models.FeedSource{
		URI:        srv.URL + "/feed.xml",
		FeedType:   models.FeedTypeRss,
		ImageCache: PlaceholderImage(),
	}
	if st.UpsertFeedSource(ctx, source, nil) != 1 {
		t.Fatal("Could not store the source")
	}

	completions := make(chan struct{}, 8)
	st.OnRefreshCompleted(func() { completions <- struct{}{} })

	// First refresh starts running; once its fetch is in flight the second
	// takes the waiting slot, and everything beyond that is dropped
	f.QueueRefresh(ctx, nil)
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected the first refresh to start")
	}
	f.QueueRefresh(ctx, nil)
	f.QueueRefresh(ctx, nil)
	f.QueueRefresh(ctx, nil)

	close(block)
	for i := 0; i < 2; i++ {
		select {
		case <-completions:
		case <-time.After(5 * time.Second):
			t.Fatalf("Expected refresh cycle %d to complete", i+1)
		}
	}
	select {
	case <-completions:
		t.Fatal("Expected the extra queue requests to be dropped")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRefreshAllIsolation(t *testing.T) {
	f, st := newTestFeeds(t)
	ctx := context.Background()

	good := feedServer(t)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer bad.Close()

	if _, _, err := f.FetchAndStore(ctx, good.URL+"/feed.xml", nil); err != nil {
		t.Fatalf("Could not subscribe the good source: %v", err)
	}
	broken := &models.FeedSource{
		URI:        bad.URL + "/feed.xml",
		FeedType:   models.FeedTypeRss,
		ImageCache: PlaceholderImage(),
	}
	if st.UpsertFeedSource(ctx, broken, nil) != 1 {
		t.Fatal("Could not store the broken source")
	}

	completed := make(chan struct{}, 1)
	st.OnRefreshCompleted(func() { completed <- struct{}{} })

	var reports []RefreshProgress
	err := f.RefreshAll(ctx, func(p RefreshProgress) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("Expected the batch to complete, got: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("Expected 2 progress reports, got %d", len(reports))
	}
	failures := 0
	for i, p := range reports {
		if p.Total != 2 {
			t.Errorf("Report %d: expected total 2, got %d", i, p.Total)
		}
		if p.Completed != i+1 {
			t.Errorf("Report %d: expected completed %d, got %d", i, i+1, p.Completed)
		}
		if p.Stage == StageFailed {
			failures++
			if p.URI != broken.URI {
				t.Errorf("Expected the broken source to fail, got %s", p.URI)
			}
		}
	}
	if failures != 1 {
		t.Errorf("Expected exactly 1 failure, got %d", failures)
	}

	select {
	case <-completed:
	default:
		t.Error("Expected the refresh-completed signal")
	}
}
