package circuitbreaker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient guards an http.Client with a Breaker. Transport errors count as
// failures; any response, whatever its status, counts as a success.
type HTTPClient struct {
	client *http.Client
	brk    *Breaker
}

// NewHTTPClient probes probeURL before closing an open breaker. A nil client
// gets a 10 second timeout.
func NewHTTPClient(name string, cfg Config, probeURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	probe := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.CopyN(io.Discard, resp.Body, 64)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("probe returned status %d", resp.StatusCode)
		}
		return nil
	}
	return &HTTPClient{client: client, brk: New(name, cfg, probe)}
}

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := h.brk.Execute(req.Context(), func(ctx context.Context) error {
		r, err := h.client.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	return resp, err
}

func (h *HTTPClient) Breaker() *Breaker { return h.brk }
