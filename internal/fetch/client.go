package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single page fetch
const DefaultTimeout = 30 * time.Second

// FetchFailure is returned when a page could not be fetched.
// Status is 0 when no HTTP response was received (timeout, connection refused).
type FetchFailure struct {
	Status int
	URL    string
	Err    error
}

func (f *FetchFailure) Error() string {
	if f.Status == 0 {
		return fmt.Sprintf("fetch %s failed: %v", f.URL, f.Err)
	}
	if f.Err != nil {
		return fmt.Sprintf("fetch %s failed with status %d: %v", f.URL, f.Status, f.Err)
	}
	return fmt.Sprintf("fetch %s failed with status %d", f.URL, f.Status)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// Request describes a GET against a collection endpoint
type Request struct {
	URL    string
	Query  url.Values
	Header http.Header
}

// String returns the full request URL
func (r Request) String() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Query.Encode()
}

// Page is one response of a paginated collection
type Page struct {
	URL     string
	Records []json.RawMessage
}

// Client fetches REST collections, following "next" links until exhausted
type Client struct {
	http   *http.Client
	header http.Header
	log    *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, proxies)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader adds a header sent on every request
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client with a finite per-request timeout
func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		http:   &http.Client{Timeout: timeout},
		header: make(http.Header),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Pages lazily yields one page per HTTP call. The sequence ends after the
// first page without a next link, or after the first error.
// Cancellation of ctx is checked before every page.
func (c *Client) Pages(ctx context.Context, req Request) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		next := req.String()
		for next != "" {
			if err := ctx.Err(); err != nil {
				yield(Page{URL: next}, err)
				return
			}

			page, link, err := c.fetchPage(ctx, next, req.Header)
			if err != nil {
				yield(Page{URL: next}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			next = link
		}
	}
}

// All fetches every page and flattens the records in order.
// Nothing is returned unless the whole link chain succeeded.
func (c *Client) All(ctx context.Context, req Request) ([]json.RawMessage, error) {
	var records []json.RawMessage
	for page, err := range c.Pages(ctx, req) {
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
	}
	return records, nil
}

// Get fetches a single resource and decodes it into v
func (c *Client) Get(ctx context.Context, req Request, v any) error {
	resp, err := c.do(ctx, http.MethodGet, req.String(), req.Header, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchFailure{Status: resp.StatusCode, URL: req.String(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// Post sends body as JSON and decodes the response into v
func (c *Client) Post(ctx context.Context, rawURL string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	resp, err := c.do(ctx, http.MethodPost, rawURL, header, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchFailure{Status: resp.StatusCode, URL: rawURL, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// Open streams a raw resource (CSV exports). The caller closes the body.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) fetchPage(ctx context.Context, rawURL string, header http.Header) (Page, string, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, header, nil)
	if err != nil {
		return Page{}, "", err
	}
	defer resp.Body.Close()

	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return Page{}, "", &FetchFailure{Status: resp.StatusCode, URL: rawURL, Err: fmt.Errorf("expected a JSON array: %w", err)}
	}

	next := NextLink(resp.Header)
	c.log.Debug("fetched page", "url", rawURL, "records", len(records), "has_next", next != "")
	return Page{URL: rawURL, Records: records}, next, nil
}

// do performs one request; any non-2xx status becomes a FetchFailure
func (c *Client) do(ctx context.Context, method, rawURL string, header http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &FetchFailure{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		c.log.Warn("request failed", "method", method, "url", rawURL, "error", err)
		return nil, &FetchFailure{URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		c.log.Warn("request rejected", "method", method, "url", rawURL, "status", resp.StatusCode, "duration", time.Since(start))
		var cause error
		if len(bytes.TrimSpace(snippet)) > 0 {
			cause = errors.New(string(bytes.TrimSpace(snippet)))
		}
		return nil, &FetchFailure{Status: resp.StatusCode, URL: rawURL, Err: cause}
	}

	return resp, nil
}
