package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/ademuri/artist-graph/internal/graph"
	"github.com/ademuri/artist-graph/internal/logging"
	"github.com/ademuri/artist-graph/internal/store"
)

type Config struct {
	// Interval is the minimum spacing between requests.
	Interval time.Duration
	// Timeout bounds each request, including its retries.
	Timeout time.Duration
	// Attempts is the number of tries for a request that fails with a
	// server error.
	Attempts uint
	// FailureThreshold consecutive failures open the breaker, which then
	// rejects requests for BreakerCooldown.
	FailureThreshold uint32
	BreakerCooldown  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval:         1 * time.Second,
		Timeout:          10 * time.Second,
		Attempts:         3,
		FailureThreshold: 5,
		BreakerCooldown:  60 * time.Second,
	}
}

// Client calls an API politely: one request per Interval, retried on
// server errors, and short-circuited while Last.fm keeps failing.
type Client struct {
	api     API
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
}

func NewClient(api API, cfg Config) *Client {
	log := logging.Component("lastfm")
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}

	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}

	settings := gobreaker.Settings{
		Name:        "lastfm",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isMissing(err)
		},
	}

	return &Client{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

// BreakerState is "closed", "half-open" or "open".
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// call runs fn through the breaker, the rate limiter and the retry policy,
// giving up when the timeout elapses or ctx is done.
func call[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	var zero T
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	res, err := c.breaker.Execute(func() (any, error) {
		var out T
		err := retry.Do(
			func() error {
				if err := c.limiter.Wait(ctx); err != nil {
					return err
				}
				var err error
				out, err = withContext(ctx, fn)
				return err
			},
			retry.Context(ctx),
			retry.Attempts(c.cfg.Attempts),
			retry.Delay(c.cfg.Interval),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				if isServerError(err) {
					logging.Component("lastfm").Debugw("last.fm errored, retrying", "error", err)
					return true
				}
				return false
			}),
		)
		return out, err
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

// withContext runs fn but stops waiting for it once ctx is done. The
// Last.fm client has no cancellation of its own.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (c *Client) TopTags(ctx context.Context, artist string) ([]store.ArtistTag, error) {
	tags, err := call(ctx, c, func() ([]store.ArtistTag, error) {
		return c.api.ArtistTopTags(artist)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching tags for %q: %w", artist, err)
	}
	return tags, nil
}

// Related implements graph.RelatedSource over artist.getSimilar.
func (c *Client) Related(ctx context.Context, artist string, limit int) ([]graph.RelatedArtist, error) {
	related, err := call(ctx, c, func() ([]graph.RelatedArtist, error) {
		return c.api.ArtistSimilar(artist, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching artists similar to %q: %w", artist, err)
	}
	return related, nil
}

func (c *Client) RecentTracks(ctx context.Context, user string, page int) (TrackPage, error) {
	tracks, err := call(ctx, c, func() (TrackPage, error) {
		return c.api.RecentTracks(user, page)
	})
	if err != nil {
		return TrackPage{}, fmt.Errorf("fetching recent tracks (page %d): %w", page, err)
	}
	return tracks, nil
}
