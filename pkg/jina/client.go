// Package jina provides a client for the Jina AI search API, the external
// search collaborator for price discovery.
package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/egphones/pricewatch/internal/resilience"
)

// Client defines the Jina AI search operations.
type Client interface {
	// Search performs a web search and returns results. Failures are
	// classified: retryable conditions carry a resilience.TransientError
	// in the chain, unretryable ones a resilience.PermanentError.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// SearchResponse is the parsed Jina Search API response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	siteFilter string
}

// WithSiteFilter restricts search results to a specific domain.
func WithSiteFilter(domain string) SearchOption {
	return func(o *searchOpts) {
		o.siteFilter = domain
	}
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom search base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles outgoing searches to r per second with the given
// burst. Zero r disables throttling.
func WithRateLimit(r float64, burst int) Option {
	return func(c *httpClient) {
		if r > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(r), burst)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new Jina AI search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{}
	for _, opt := range opts {
		opt(so)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "jina: rate limit wait")
		}
	}

	reqURL := fmt.Sprintf("%s/%s", c.baseURL, url.QueryEscape(query))
	if so.siteFilter != "" {
		reqURL += "?site=" + url.QueryEscape(so.siteFilter)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: create search request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// Network-level failures are worth retrying.
		return nil, eris.Wrap(resilience.NewTransientError(err, 0), "jina: search request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(resilience.NewTransientError(err, resp.StatusCode), "jina: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// Parsed below.
	case resp.StatusCode == http.StatusUnprocessableEntity:
		// Jina returns 422 when no results exist for the query.
		return &SearchResponse{Code: 422}, nil
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, eris.Wrapf(
			resilience.NewTransientError(eris.Errorf("status %d: %s", resp.StatusCode, string(body)), resp.StatusCode),
			"jina: search")
	default:
		// Remaining 4xx means the query or credentials are bad; retrying
		// cannot help.
		return nil, eris.Wrapf(
			resilience.NewPermanentError(eris.Errorf("status %d: %s", resp.StatusCode, string(body)), resp.StatusCode),
			"jina: search")
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(resilience.NewPermanentError(err, resp.StatusCode), "jina: unmarshal search response")
	}

	return &result, nil
}
