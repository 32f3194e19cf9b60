// Package eventstream merges the two transports for watching daemon events:
// the HTTP API when it is reachable, and the IPC socket otherwise.
package eventstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/ipc"
	"github.com/Kirkezz/parkour-analyzer/internal/logs"
)

const (
	defaultTail = 20
	// apiWait is the long-poll window for follow mode over HTTP. The request
	// carries the caller's context, so cancellation is immediate.
	apiWait = 25 * time.Second
	// ipcWaitMillis stays short because an in-flight RPC cannot be canceled;
	// the loop checks the context between polls.
	ipcWaitMillis = 2000
	followLimit   = 200
)

// EventsClient captures the IPC event paging contract used for fallback
// streaming.
type EventsClient interface {
	Events(req ipc.EventsRequest) (*ipc.EventsResponse, error)
}

// Options controls stream behavior.
type Options struct {
	// Tail is how many buffered events to replay before following.
	Tail int
	// Follow keeps the stream open for new events until the context ends.
	Follow bool
}

// Stream emits watch events from the API when available, falling back to the
// IPC socket. It returns true when at least one event was emitted.
func Stream(
	ctx context.Context,
	apiClient *logs.StreamClient,
	fallback EventsClient,
	opts Options,
	onEvent func(events.Event),
) (bool, error) {
	printed, err := streamAPI(ctx, apiClient, opts, onEvent)
	if err == nil {
		return printed, nil
	}
	if !logs.IsAPIUnavailable(err) {
		return printed, err
	}
	if fallback == nil {
		return false, logs.ErrAPIUnavailable
	}
	return streamIPC(ctx, fallback, opts, onEvent)
}

func streamAPI(
	ctx context.Context,
	client *logs.StreamClient,
	opts Options,
	onEvent func(events.Event),
) (bool, error) {
	query := logs.StreamQuery{Limit: opts.Tail, Tail: true}
	if query.Limit <= 0 {
		query.Limit = defaultTail
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return printed, nil
			}
			return printed, err
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if !opts.Follow {
			return printed, nil
		}
		// The tail page always ends at the buffer tip, so resp.Next is the
		// right cursor there. Later pages may be cut short by the limit, so
		// they advance only as far as the last event actually delivered.
		if query.Tail {
			query.Since = resp.Next
		} else if n := len(resp.Events); n > 0 {
			query.Since = resp.Events[n-1].Sequence
		}
		query.Limit = followLimit
		query.Tail = false
		query.Wait = apiWait
	}
}

func streamIPC(ctx context.Context, client EventsClient, opts Options, onEvent func(events.Event)) (bool, error) {
	tail := opts.Tail
	if tail <= 0 {
		tail = defaultTail
	}

	// The socket has no tail mode, so replay everything buffered and trim
	// client side. The buffer is small enough for that to stay cheap.
	resp, err := client.Events(ipc.EventsRequest{})
	if err != nil {
		return false, fmt.Errorf("fetch events: %w", err)
	}
	if resp == nil {
		return false, errors.New("events response missing")
	}
	replay := resp.Events
	if len(replay) > tail {
		replay = replay[len(replay)-tail:]
	}
	printed := false
	for _, evt := range replay {
		if onEvent != nil {
			onEvent(evt)
		}
		printed = true
	}
	if !opts.Follow {
		return printed, nil
	}

	since := resp.Next
	for {
		select {
		case <-ctx.Done():
			return printed, nil
		default:
		}
		resp, err := client.Events(ipc.EventsRequest{Since: since, Limit: followLimit, WaitMillis: ipcWaitMillis})
		if err != nil {
			return printed, fmt.Errorf("fetch events: %w", err)
		}
		if resp == nil {
			return printed, errors.New("events response missing")
		}
		for _, evt := range resp.Events {
			if onEvent != nil {
				onEvent(evt)
			}
			printed = true
		}
		if n := len(resp.Events); n > 0 {
			since = resp.Events[n-1].Sequence
		}
	}
}
