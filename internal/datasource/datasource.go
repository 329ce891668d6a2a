package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/timerange"
)

var ErrBadStatus = errors.New("unexpected response status")

// Doer is satisfied by *http.Client and *circuitbreaker.HTTPClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads the GreenSat HTTP/JSON API.
type Client struct {
	baseURL string
	http    Doer
}

func New(baseURL string, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: doer}
}

func (c *Client) Limits(ctx context.Context) (model.Limits, error) {
	var limits model.Limits
	err := c.getJSON(ctx, "/api/limits", nil, &limits)
	return limits, err
}

func (c *Client) Latest(ctx context.Context) (model.Measurement, error) {
	var m model.Measurement
	err := c.getJSON(ctx, "/api/data", nil, &m)
	return m, err
}

// History fetches the records inside r. Year views ask the server for one
// averaged row per day.
func (c *Client) History(ctx context.Context, r timerange.DateRange, mode timerange.ViewMode) ([]model.Measurement, error) {
	q := url.Values{}
	q.Set("start", r.StartWire())
	q.Set("end", r.EndWire())
	q.Set("mode", string(mode))
	if mode == timerange.ModeYear {
		q.Set("resolution", "day")
	}

	var records []model.Measurement
	if err := c.getJSON(ctx, "/api/history", q, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrBadStatus, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	log.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("data source request complete")
	return nil
}
