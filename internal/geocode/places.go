// Package geocode resolves free-text location queries to formatted
// addresses through the Places text-search API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("geocode: places lookup is not configured")
	// ErrEmptyQuery rejects blank queries before any request is sent.
	ErrEmptyQuery = errors.New("geocode: query is required")
)

const maxResults = 5

// Place is one search result.
type Place struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formattedAddress"`
}

// Client queries the Places API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// NewClient returns a client for baseURL. A zero timeout keeps the HTTP
// client default.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether Search can be used.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type textSearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// Search returns up to five places matching query.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/textsearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build places request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("places request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload textSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode places response: %w", err)
	}
	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []Place{}, nil
	default:
		return nil, fmt.Errorf("places search failed: %s %s", payload.Status, payload.ErrorMessage)
	}

	places := make([]Place, 0, min(len(payload.Results), maxResults))
	for _, r := range payload.Results {
		if len(places) == maxResults {
			break
		}
		places = append(places, Place{Name: r.Name, FormattedAddress: r.FormattedAddress})
	}
	return places, nil
}
