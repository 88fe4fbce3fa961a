// Package wikidata provides a client for the Wikidata entity search API.
//
// The client wraps the wbsearchentities action of the MediaWiki API and
// returns a flat list of candidate hits. Search failures are reported as
// diagnostics rather than hard errors so a linking run can continue with
// an empty candidate set.
package wikidata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the production Wikidata API endpoint.
	DefaultBaseURL = "https://www.wikidata.org/w/api.php"

	// DefaultUserAgent identifies this tool to the Wikimedia servers,
	// per their API etiquette guidelines.
	DefaultUserAgent = "semlink/1.0 (AAS semantic linking; https://github.com/c360studio/semlink)"

	// DefaultTimeout bounds a single search request.
	DefaultTimeout = 10 * time.Second

	// MaxLimit is the largest result count wbsearchentities accepts for
	// anonymous clients.
	MaxLimit = 50
)

// SearchHit is a single candidate entity returned by a search.
type SearchHit struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Client searches Wikidata for entities matching a text query.
type Client struct {
	baseURL    string
	userAgent  string
	language   string
	limit      int
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used in tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLanguage sets the search language (default "en").
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// WithLimit sets the maximum number of hits per search, capped at MaxLimit.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithTimeout bounds a single search request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient overrides the HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a Wikidata search client with sensible defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		language:  "en",
		limit:     MaxLimit,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limit > MaxLimit {
		c.limit = MaxLimit
	}
	return c
}

// searchResponse mirrors the wbsearchentities JSON envelope.
type searchResponse struct {
	Search []struct {
		ID          string `json:"id"`
		Label       string `json:"label"`
		Description string `json:"description"`
	} `json:"search"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Search queries wbsearchentities for the given text. A failed request or
// malformed response yields an empty hit list and a non-empty diagnostic
// string; the error return is reserved for context cancellation.
func (c *Client) Search(ctx context.Context, query string) ([]SearchHit, string, error) {
	if query == "" {
		return nil, "", nil
	}

	params := url.Values{}
	params.Set("action", "wbsearchentities")
	params.Set("search", query)
	params.Set("language", c.language)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Sprintf("build request: %v", err), nil
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		c.logger.Warn("wikidata search failed", "query", query, "error", err)
		return nil, fmt.Sprintf("wikidata request failed: %v", err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("wikidata search returned error status", "query", query, "status", resp.StatusCode)
		return nil, fmt.Sprintf("wikidata returned status %d", resp.StatusCode), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Sprintf("read response: %v", err), nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Warn("wikidata response not parseable", "query", query, "error", err)
		return nil, fmt.Sprintf("malformed wikidata response: %v", err), nil
	}

	if parsed.Error != nil {
		return nil, fmt.Sprintf("wikidata API error %s: %s", parsed.Error.Code, parsed.Error.Info), nil
	}

	hits := make([]SearchHit, 0, len(parsed.Search))
	for _, s := range parsed.Search {
		hits = append(hits, SearchHit{
			ID:          s.ID,
			Label:       s.Label,
			Description: s.Description,
		})
	}

	c.logger.Debug("wikidata search completed", "query", query, "hits", len(hits))
	return hits, "", nil
}
