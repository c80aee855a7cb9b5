// internal/adapters/wordpress/client.go
package wordpress

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"talent_testimonials/internal/adapters/observability"
	"talent_testimonials/internal/domain"
)

// WordPress caps per_page at 100.
const perPage = 100

type Client struct {
	base     string
	postType string
	user     string
	pass     string
	hc       *http.Client
	rl       *rate.Limiter
	workers  int
}

type Options struct {
	BaseURL     string
	PostType    string
	User        string
	AppPassword string
	RPS         int
	Workers     int
}

func New(o Options) (*Client, error) {
	if o.BaseURL == "" {
		return nil, fmt.Errorf("WordPress base URL is required")
	}
	if o.PostType == "" {
		o.PostType = "testimonials"
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return &Client{
		base:     strings.TrimRight(o.BaseURL, "/"),
		postType: o.PostType,
		user:     o.User,
		pass:     o.AppPassword,
		hc:       &http.Client{Timeout: 20 * time.Second},
		rl:       rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		workers:  o.Workers,
	}, nil
}

// ---- Public API ----

// ListTestimonials returns every testimonial post as a loose JSON object.
// Page 1 reports X-WP-TotalPages; the remaining pages are fetched concurrently
// and concatenated in page order.
func (c *Client) ListTestimonials(ctx context.Context) ([]map[string]any, error) {
	first, hdr, err := c.listPage(ctx, 1)
	if err != nil {
		return nil, err
	}
	totalPages, _ := strconv.Atoi(hdr.Get("X-WP-TotalPages"))
	if totalPages <= 1 {
		return first, nil
	}

	pages := make([][]map[string]any, totalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for p := 2; p <= totalPages; p++ {
		g.Go(func() error {
			items, _, err := c.listPage(gctx, p)
			if err != nil {
				return fmt.Errorf("page %d: %w", p, err)
			}
			pages[p-1] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, totalPages*perPage)
	for _, items := range pages {
		out = append(out, items...)
	}
	return out, nil
}

func (c *Client) listPage(ctx context.Context, page int) ([]map[string]any, http.Header, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("orderby", "date")
	q.Set("order", "desc")

	candidates := []string{
		fmt.Sprintf("%s/wp-json/wp/v2/%s?%s", c.base, c.postType, q.Encode()), // pretty permalinks
		fmt.Sprintf("%s/?rest_route=/wp/v2/%s&%s", c.base, c.postType, q.Encode()),
	}
	var out []map[string]any
	hdr, err := c.getFirst(ctx, candidates, &out)
	return out, hdr, err
}

// ---- Internals ----

var (
	ErrUnauthorized = errors.New("wordpress: unauthorized")
	ErrForbidden    = errors.New("wordpress: forbidden")
)

func (c *Client) getFirst(ctx context.Context, urls []string, out any) (http.Header, error) {
	var last error
	for _, u := range urls {
		hdr, err := c.get(ctx, u, out)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return nil, err // non-404: stop early
		}
		return hdr, nil
	}
	if last != nil {
		return nil, last
	}
	return nil, errors.New("no candidate URL succeeded")
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url string, out any) (http.Header, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		if c.user != "" {
			req.SetBasicAuth(c.user, c.pass)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "talent-testimonials/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("wordpress", c.postType, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal("wordpress", c.postType, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return resp.Header, err

		case http.StatusNotFound:
			resp.Body.Close()
			return nil, domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return nil, ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
