package logs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
)

// ErrAPIUnavailable marks event stream failures caused by the HTTP API not
// being reachable, so callers can fall back to the IPC socket.
var ErrAPIUnavailable = errors.New("events API unavailable")

// StreamClient fetches buffered watch events from the daemon HTTP API.
type StreamClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

// StreamQuery selects which events one Fetch call returns.
type StreamQuery struct {
	Since uint64
	Limit int
	Tail  bool
	Wait  time.Duration
}

// NewStreamClient builds a client for the configured API bind. An empty bind
// yields a nil client, which Fetch treats as the API being unavailable. The
// token is sent as a bearer credential when non-empty.
func NewStreamClient(bind, token string) (*StreamClient, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &StreamClient{
		base:  base,
		token: strings.TrimSpace(token),
		// No timeout: long-poll requests block until the daemon responds or
		// the caller cancels the context.
		http: &http.Client{},
	}, nil
}

// Fetch retrieves one page of events.
func (c *StreamClient) Fetch(ctx context.Context, q StreamQuery) (api.EventsResponse, error) {
	if c == nil {
		return api.EventsResponse{}, ErrAPIUnavailable
	}

	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if q.Wait > 0 {
		values.Set("wait_ms", strconv.FormatInt(q.Wait.Milliseconds(), 10))
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: "/api/events", RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return api.EventsResponse{}, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return api.EventsResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return api.EventsResponse{}, fmt.Errorf("api events returned status %d", resp.StatusCode)
	}

	var payload api.EventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return api.EventsResponse{}, err
	}
	return payload, nil
}

// IsAPIUnavailable reports whether err means the HTTP API could not be
// reached at all, as opposed to it answering with an error.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
