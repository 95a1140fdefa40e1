package meetup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/pyladies-meetup/internal/logger"
)

const (
	UserAgent = "pyladies-meetup/1.0 (github.com/pfrederiksen/pyladies-meetup)"
	Timeout   = 30 * time.Second

	// DefaultRequestDelay is the minimum spacing between two API requests.
	DefaultRequestDelay = 1 * time.Second

	GroupsEndpoint  = "/groups"
	MembersEndpoint = "/members"
)

// Record is a single raw result object as returned by the API.
type Record = map[string]any

// PageSource yields result pages for an endpoint query.
type PageSource interface {
	Pages(ctx context.Context, endpoint string, params url.Values) iter.Seq2[[]Record, error]
}

// Fetcher issues paginated GET requests against the Meetup API.
//
// The credential parameters are fixed at construction and merged into a fresh
// parameter set for every call; per-call parameters never leak into later calls.
type Fetcher struct {
	http    *resty.Client
	host    string
	base    url.Values
	limiter *rate.Limiter
	metrics *logger.Metrics
	log     *logger.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRequestDelay sets the minimum spacing between requests. Zero disables
// throttling.
func WithRequestDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.limiter = newLimiter(d)
	}
}

// WithRetries sets how many times a request is retried after a transport failure.
func WithRetries(n int) FetcherOption {
	return func(f *Fetcher) {
		f.http.SetRetryCount(n)
	}
}

// WithMetrics records request counters and timings on m.
func WithMetrics(m *logger.Metrics) FetcherOption {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = l
	}
}

// NewFetcher creates a Fetcher for the API at host, signing every request with apiKey.
func NewFetcher(host, apiKey string, opts ...FetcherOption) *Fetcher {
	client := resty.New()
	client.SetTimeout(Timeout)
	client.SetHeader("User-Agent", UserAgent)
	client.SetHeader("Accept", "application/json")
	client.SetRetryCount(1)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(5 * time.Second)

	f := &Fetcher{
		http: client,
		host: host,
		base: url.Values{
			"signed": {"true"},
			"key":    {apiKey},
		},
		limiter: newLimiter(DefaultRequestDelay),
		metrics: logger.DefaultMetrics(),
		log:     logger.Named("pyladies.meetup.api"),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// newLimiter returns a limiter that makes every request, the first one
// included, wait at least d since the previous one.
func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	l := rate.NewLimiter(rate.Every(d), 1)
	l.Allow()
	return l
}

// page is the envelope of every list response.
type page struct {
	Results json.RawMessage `json:"results"`
	Meta    struct {
		Next string `json:"next"`
	} `json:"meta"`
}

// Pages returns the result pages for endpoint, filtered by params, in the order
// the API returns them. Iteration follows meta.next until it is absent or
// empty. A non-success status or a response without "results" ends iteration
// without an error. Transport and decoding failures are yielded once as a
// *FetchError, after which iteration stops.
func (f *Fetcher) Pages(ctx context.Context, endpoint string, params url.Values) iter.Seq2[[]Record, error] {
	return func(yield func([]Record, error) bool) {
		target := f.host + endpoint
		query := f.merge(params)

		for target != "" {
			results, next, err := f.fetch(ctx, target, query)
			if err != nil {
				yield(nil, err)
				return
			}
			if results == nil {
				return
			}
			if !yield(results, nil) {
				return
			}

			if next == "" {
				return
			}
			target = next
			if query, err = f.cursorQuery(next); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

// merge builds the query for a first request: credentials plus call overrides.
func (f *Fetcher) merge(params url.Values) url.Values {
	query := make(url.Values, len(f.base)+len(params))
	for k, v := range f.base {
		query[k] = append([]string(nil), v...)
	}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	return query
}

// cursorQuery returns the credentials a cursor URL does not already carry.
// Filters are already encoded in the cursor.
func (f *Fetcher) cursorQuery(next string) (url.Values, error) {
	u, err := url.Parse(next)
	if err != nil || !u.IsAbs() {
		if err == nil {
			err = fmt.Errorf("cursor is not an absolute URL")
		}
		return nil, &FetchError{URL: redactURL(next), Err: err}
	}

	present := u.Query()
	query := make(url.Values)
	for k, v := range f.base {
		if !present.Has(k) {
			query[k] = append([]string(nil), v...)
		}
	}
	return query, nil
}

// fetch performs one throttled request. A nil results slice with a nil error
// means pagination should stop quietly.
func (f *Fetcher) fetch(ctx context.Context, target string, query url.Values) ([]Record, string, error) {
	safeURL := redactURL(target)

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", &FetchError{URL: safeURL, Err: err}
	}

	start := time.Now()
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(query).
		Get(target)
	f.metrics.IncrCounter("meetup.requests")
	f.metrics.RecordTiming("meetup.request", time.Since(start))
	if err != nil {
		f.metrics.IncrCounter("meetup.requests.failed")
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactURL(uerr.URL)
		}
		return nil, "", &FetchError{URL: safeURL, Err: err}
	}

	f.log.Debug("REQ URL", logger.Fields{
		"url":    safeURL,
		"status": resp.StatusCode(),
	})

	if !resp.IsSuccess() {
		f.metrics.IncrCounter("meetup.requests.unsuccessful")
		f.log.Warn("Non-success response, treating page as empty", logger.Fields{
			"url":    safeURL,
			"status": resp.StatusCode(),
		})
		return nil, "", nil
	}

	var pg page
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	dec.UseNumber()
	if err := dec.Decode(&pg); err != nil {
		return nil, "", &FetchError{URL: safeURL, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decoding response: %w", err)}
	}

	if len(pg.Results) == 0 || string(pg.Results) == "null" {
		return nil, "", nil
	}

	var results []Record
	dec = json.NewDecoder(bytes.NewReader(pg.Results))
	dec.UseNumber()
	if err := dec.Decode(&results); err != nil {
		return nil, "", &FetchError{URL: safeURL, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decoding results: %w", err)}
	}
	if results == nil {
		results = []Record{}
	}

	return results, pg.Meta.Next, nil
}

// Collect drains a page sequence into one slice in arrival order. On failure
// it returns the records gathered so far together with the error.
func Collect(pages iter.Seq2[[]Record, error]) ([]Record, error) {
	var all []Record
	for results, err := range pages {
		if err != nil {
			return all, err
		}
		all = append(all, results...)
	}
	return all, nil
}
