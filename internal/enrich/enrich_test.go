package enrich

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ademuri/lastfm-go/lastfm"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ademuri/artist-graph/internal/genre"
	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/store"
)

type fakeAPI struct {
	mu      sync.Mutex
	tags    map[string][]store.ArtistTag
	similar map[string][]graph.RelatedArtist
	pages   []TrackPage
	errs    []error
	calls   int
	block   chan struct{}
}

// next pops the next scripted error, if any.
func (f *fakeAPI) next() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeAPI) ArtistTopTags(artist string) ([]store.ArtistTag, error) {
	if f.block != nil {
		<-f.block
	}
	if err := f.next(); err != nil {
		return nil, err
	}
	tags, ok := f.tags[artist]
	if !ok {
		return nil, &lastfm.LastfmError{Code: 6, Message: "The artist you supplied could not be found"}
	}
	return tags, nil
}

func (f *fakeAPI) ArtistSimilar(artist string, limit int) ([]graph.RelatedArtist, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	related := f.similar[artist]
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

func (f *fakeAPI) RecentTracks(user string, page int) (TrackPage, error) {
	if err := f.next(); err != nil {
		return TrackPage{}, err
	}
	if page < 1 || page > len(f.pages) {
		return TrackPage{TotalPages: len(f.pages)}, nil
	}
	return f.pages[page-1], nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() Config {
	return Config{Timeout: time.Second, Attempts: 3, FailureThreshold: 3, BreakerCooldown: time.Minute}
}

func serverError() error {
	return &lastfm.LastfmError{Code: 503, Message: "unavailable"}
}

func TestClientRetriesServerErrors(t *testing.T) {
	api := &fakeAPI{
		tags: map[string][]store.ArtistTag{"Seven Lions": {{Name: "melodic dubstep", Count: 100}}},
		errs: []error{serverError(), serverError()},
	}
	c := NewClient(api, testConfig())

	tags, err := c.TopTags(context.Background(), "Seven Lions")
	require.NoError(t, err)
	assert.Equal(t, []store.ArtistTag{{Name: "melodic dubstep", Count: 100}}, tags)
	assert.Equal(t, 3, api.callCount())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	api := &fakeAPI{errs: []error{&lastfm.LastfmError{Code: 10, Message: "invalid api key"}}}
	c := NewClient(api, testConfig())

	_, err := c.Related(context.Background(), "Seven Lions", 5)
	require.Error(t, err)
	assert.Equal(t, 1, api.callCount())
}

func TestClientBreakerOpens(t *testing.T) {
	api := &fakeAPI{errs: []error{
		&lastfm.LastfmError{Code: 29, Message: "rate limit"},
		&lastfm.LastfmError{Code: 29, Message: "rate limit"},
		&lastfm.LastfmError{Code: 29, Message: "rate limit"},
	}}
	c := NewClient(api, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.TopTags(ctx, "x")
		require.Error(t, err)
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.TopTags(ctx, "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, api.callCount(), "an open breaker must not reach the API")
}

func TestClientMissingArtistKeepsBreakerClosed(t *testing.T) {
	api := &fakeAPI{}
	c := NewClient(api, testConfig())

	for i := 0; i < 5; i++ {
		_, err := c.TopTags(context.Background(), "Nobody")
		require.Error(t, err)
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestClientTimeout(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	defer close(api.block)
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	c := NewClient(api, cfg)

	_, err := c.TopTags(context.Background(), "Seven Lions")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientRelatedSource(t *testing.T) {
	api := &fakeAPI{similar: map[string][]graph.RelatedArtist{
		"Seven Lions": {{Name: "Illenium", Match: 0.9}, {Name: "Said The Sky", Match: 0.8}},
	}}
	var src graph.RelatedSource = NewClient(api, testConfig())

	related, err := src.Related(context.Background(), "Seven Lions", 1)
	require.NoError(t, err)
	assert.Equal(t, []graph.RelatedArtist{{Name: "Illenium", Match: 0.9}}, related)
}

type memCache struct {
	tags    map[string][]store.ArtistTag
	updated map[string]time.Time
}

func newMemCache() *memCache {
	return &memCache{tags: map[string][]store.ArtistTag{}, updated: map[string]time.Time{}}
}

func (m *memCache) GetArtistTags(artist string) ([]store.ArtistTag, error) {
	return m.tags[artist], nil
}

func (m *memCache) ArtistTagsStale(artist string, interval time.Duration) (bool, error) {
	u, ok := m.updated[artist]
	return !ok || u.Before(time.Now().Add(-interval)), nil
}

func (m *memCache) SaveArtistTags(artist string, tags []store.ArtistTag) error {
	m.tags[artist] = tags
	m.updated[artist] = time.Now()
	return nil
}

func tagGraph(nodes ...graph.Node) graph.Graph {
	return graph.Graph{KeySpace: graph.KeyByName, Nodes: nodes}
}

func TestTaggerFillsOnlyUnresolved(t *testing.T) {
	api := &fakeAPI{tags: map[string][]store.ArtistTag{
		"Mystery":  {{Name: "seen live", Count: 100}, {Name: "Trance", Count: 50}},
		"Known":    {{Name: "pop", Count: 100}},
		"Untagged": {{Name: "seen live", Count: 10}},
	}}
	cache := newMemCache()
	tagger := &Tagger{Source: NewClient(api, testConfig()), Cache: cache}

	g := tagGraph(
		graph.Node{ID: "Mystery", Name: "Mystery", Genre: genre.Other},
		graph.Node{ID: "Known", Name: "Known", Genre: "Trap/Bass"},
		graph.Node{ID: "Untagged", Name: "Untagged", Genre: genre.Other},
	)
	out, report := tagger.Resolve(context.Background(), g)

	assert.Equal(t, "Trance", out.Nodes[0].Genre)
	assert.Equal(t, "Trap/Bass", out.Nodes[1].Genre)
	assert.Equal(t, genre.Other, out.Nodes[2].Genre)
	assert.Equal(t, genre.Other, g.Nodes[0].Genre, "input graph must not change")
	assert.Equal(t, TagReport{Unresolved: 2, Fetched: 2, Assigned: 1}, report)
	assert.Len(t, cache.tags["Mystery"], 2)
}

func TestTaggerUsesFreshCache(t *testing.T) {
	api := &fakeAPI{}
	cache := newMemCache()
	cache.SaveArtistTags("Mystery", []store.ArtistTag{{Name: "house", Count: 3}})
	tagger := &Tagger{Source: NewClient(api, testConfig()), Cache: cache}

	out, report := tagger.Resolve(context.Background(), tagGraph(graph.Node{ID: "Mystery", Name: "Mystery", Genre: genre.Other}))
	assert.Equal(t, "House", out.Nodes[0].Genre)
	assert.Equal(t, 1, report.FromCache)
	assert.Equal(t, 0, api.callCount())
}

func TestTaggerFallsBackToStaleCache(t *testing.T) {
	api := &fakeAPI{errs: []error{&lastfm.LastfmError{Code: 10, Message: "invalid api key"}}}
	cache := newMemCache()
	cache.tags["Mystery"] = []store.ArtistTag{{Name: "techno", Count: 3}}
	cache.updated["Mystery"] = time.Now().Add(-48 * time.Hour)
	tagger := &Tagger{Source: NewClient(api, testConfig()), Cache: cache, Interval: time.Hour}

	out, report := tagger.Resolve(context.Background(), tagGraph(graph.Node{ID: "Mystery", Name: "Mystery", Genre: genre.Other}))
	assert.Equal(t, "Techno", out.Nodes[0].Genre)
	assert.Equal(t, TagReport{Unresolved: 1, FromCache: 1, Assigned: 1}, report)
}

func TestTaggerWithoutSourceOrCache(t *testing.T) {
	tagger := &Tagger{}
	g := tagGraph(graph.Node{ID: "Mystery", Name: "Mystery", Genre: genre.Other})
	out, report := tagger.Resolve(context.Background(), g)
	assert.Equal(t, genre.Other, out.Nodes[0].Genre)
	assert.Equal(t, 1, report.Failed)
}

func TestTaggerWithStore(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "tags.db"))
	require.NoError(t, err)
	defer s.Close()

	api := &fakeAPI{tags: map[string][]store.ArtistTag{"Mystery": {{Name: "drum and bass", Count: 7}}}}
	tagger := &Tagger{Source: NewClient(api, testConfig()), Cache: s}
	g := tagGraph(graph.Node{ID: "Mystery", Name: "Mystery", Genre: genre.Other})

	out, _ := tagger.Resolve(context.Background(), g)
	assert.Equal(t, "Drum & Bass", out.Nodes[0].Genre)

	// The second run is served from the database.
	out, report := tagger.Resolve(context.Background(), g)
	assert.Equal(t, "Drum & Bass", out.Nodes[0].Genre)
	assert.Equal(t, 1, report.FromCache)
	assert.Equal(t, 1, api.callCount())
}

func TestFetchRecent(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	api := &fakeAPI{pages: []TrackPage{
		{TotalPages: 3, Oldest: day(20), Tracks: []graph.Observation{
			{Title: "A", Artist: "Seven Lions"}, {Title: "A", Artist: "Seven Lions"}, {Title: "B", Artist: "Illenium"},
		}},
		{TotalPages: 3, Oldest: day(10), Tracks: []graph.Observation{{Title: "C", Artist: "Drake"}}},
		{TotalPages: 3, Oldest: day(1), Tracks: []graph.Observation{{Title: "D", Artist: "Drake"}}},
	}}
	c := NewClient(api, testConfig())

	obs, err := FetchRecent(context.Background(), c, "someone", RecentOptions{})
	require.NoError(t, err)
	assert.Len(t, obs, 4)
	assert.Equal(t, "B", obs[1].Title)

	obs, err = FetchRecent(context.Background(), c, "someone", RecentOptions{After: day(15)})
	require.NoError(t, err)
	assert.Len(t, obs, 3, "paging stops at the first page older than After")

	obs, err = FetchRecent(context.Background(), c, "someone", RecentOptions{MaxPages: 1})
	require.NoError(t, err)
	assert.Len(t, obs, 2)
}

func TestFetchRecentError(t *testing.T) {
	api := &fakeAPI{errs: []error{errors.New("boom")}}
	_, err := FetchRecent(context.Background(), NewClient(api, testConfig()), "someone", RecentOptions{})
	assert.Error(t, err)
}
