package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"nitpickr-api/internal/logger"
)

// UpstreamError is returned when the AI or search backend answers with a
// non-2xx status.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

// Client talks to the listing search backend and the AI backend.
type Client struct {
	AIBaseURL     string
	SearchBaseURL string

	// HTTP serves the request/response calls; Stream serves the nitpick
	// stream and has no overall timeout.
	HTTP   *http.Client
	Stream *http.Client

	log *logger.Logger
}

func New(aiBaseURL, searchBaseURL string) *Client {
	return &Client{
		AIBaseURL:     aiBaseURL,
		SearchBaseURL: searchBaseURL,
		HTTP:          &http.Client{Timeout: 30 * time.Second},
		Stream:        &http.Client{},
		log:           logger.New("aiclient"),
	}
}

// Listings fetches the listings of a town from the search backend.
func (c *Client) Listings(ctx context.Context, town string) ([]Listing, error) {
	u := c.SearchBaseURL + "/api/listings?town=" + url.QueryEscape(town)

	var raw []rawListing
	if err := c.doJSON(ctx, http.MethodGet, u, nil, &raw); err != nil {
		return nil, err
	}

	out := make([]Listing, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.fromTownFeed())
	}
	return out, nil
}

// Search forwards a free-text search term. found is false when the backend
// answers without a hits field.
func (c *Client) Search(ctx context.Context, userID, term string) (listings []Listing, found bool, err error) {
	u := c.AIBaseURL + "/api/search?userId=" + url.QueryEscape(userID)

	var res searchResponse
	if err := c.doRaw(ctx, http.MethodPost, u, "text/plain; charset=utf-8", []byte(term), &res); err != nil {
		return nil, false, err
	}
	if res.Hits == nil {
		return nil, false, nil
	}

	out := make([]Listing, 0, len(*res.Hits))
	for _, h := range *res.Hits {
		out = append(out, h.fromHit(false))
	}
	return out, true, nil
}

type geoQuery struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Radius float64 `json:"radius"`
}

// GeoSearch returns the listings within radius of a point.
func (c *Client) GeoSearch(ctx context.Context, userID string, lat, lng, radius float64) ([]Listing, error) {
	u := c.AIBaseURL + "/api/geosearch?userId=" + url.QueryEscape(userID)

	var res searchResponse
	if err := c.doJSON(ctx, http.MethodPost, u, geoQuery{Lat: lat, Lng: lng, Radius: radius}, &res); err != nil {
		return nil, err
	}
	if res.Hits == nil {
		return []Listing{}, nil
	}

	out := make([]Listing, 0, len(*res.Hits))
	for _, h := range *res.Hits {
		out = append(out, h.fromHit(true))
	}
	return out, nil
}

// StreamNitpick opens the streaming nitpick report for an address. The caller
// owns the response body. Cancelling ctx aborts the upstream request.
func (c *Client) StreamNitpick(ctx context.Context, userID, address string) (*http.Response, error) {
	q := url.Values{}
	q.Set("user", userID)
	q.Set("address", address)
	u := c.AIBaseURL + "/api/streaming/nitpick?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	res, err := c.Stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open nitpick stream: %w", err)
	}
	return res, nil
}

func (c *Client) doJSON(ctx context.Context, method, u string, body, dest interface{}) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}
	return c.doRaw(ctx, method, u, "application/json", payload, dest)
}

func (c *Client) doRaw(ctx context.Context, method, u, contentType string, payload []byte, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		c.log.Warn("Upstream error", "method", method, "path", req.URL.Path, "status", res.StatusCode)
		return &UpstreamError{Status: res.StatusCode, Body: string(b)}
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
