package eventstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/eventstream"
	"github.com/Kirkezz/parkour-analyzer/internal/ipc"
	"github.com/Kirkezz/parkour-analyzer/internal/logs"
)

type fakeEventsClient struct {
	fn func(req ipc.EventsRequest) (*ipc.EventsResponse, error)
}

func (f *fakeEventsClient) Events(req ipc.EventsRequest) (*ipc.EventsResponse, error) {
	return f.fn(req)
}

func collectSequences(collected *[]uint64) func(events.Event) {
	return func(evt events.Event) {
		*collected = append(*collected, evt.Sequence)
	}
}

func TestStreamTailStopsWithoutFollow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tail"); got != "1" {
			t.Errorf("unexpected tail param %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("unexpected limit param %q", got)
		}
		_ = json.NewEncoder(w).Encode(api.EventsResponse{
			Events: []events.Event{
				{Sequence: 1, Type: events.TypeLocation, Payload: "/tmp/latest.log"},
				{Sequence: 2, Type: events.TypeUpdate, Payload: "content"},
			},
			Next: 2,
		})
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var collected []uint64
	printed, err := eventstream.Stream(context.Background(), client, nil,
		eventstream.Options{Tail: 5}, collectSequences(&collected))
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !printed {
		t.Fatal("expected printed=true")
	}
	if len(collected) != 2 || collected[0] != 1 || collected[1] != 2 {
		t.Fatalf("unexpected sequences %v", collected)
	}
}

func TestStreamFollowAdvancesCursorPastTruncatedPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			if got := r.URL.Query().Get("tail"); got != "1" {
				t.Errorf("first request missing tail param, got %q", got)
			}
			_ = json.NewEncoder(w).Encode(api.EventsResponse{
				Events: []events.Event{
					{Sequence: 1, Type: events.TypeLocation, Payload: "/tmp/latest.log"},
					{Sequence: 2, Type: events.TypeUpdate, Payload: "one"},
				},
				Next: 2,
			})
		case 2:
			if got := r.URL.Query().Get("since"); got != "2" {
				t.Errorf("second request since=%q, want 2", got)
			}
			// Page cut short by the limit: event 4 exists but is not
			// delivered, so the cursor must not jump to Next.
			_ = json.NewEncoder(w).Encode(api.EventsResponse{
				Events: []events.Event{{Sequence: 3, Type: events.TypeUpdate, Payload: "two"}},
				Next:   4,
			})
		case 3:
			if got := r.URL.Query().Get("since"); got != "3" {
				t.Errorf("third request since=%q, want 3", got)
			}
			_ = json.NewEncoder(w).Encode(api.EventsResponse{
				Events: []events.Event{{Sequence: 4, Type: events.TypeUpdate, Payload: "three"}},
				Next:   4,
			})
		default:
			cancel()
			_ = json.NewEncoder(w).Encode(api.EventsResponse{Next: 4})
		}
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var collected []uint64
	printed, err := eventstream.Stream(ctx, client, nil,
		eventstream.Options{Tail: 10, Follow: true}, collectSequences(&collected))
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !printed {
		t.Fatal("expected printed=true")
	}
	want := []uint64{1, 2, 3, 4}
	if len(collected) != len(want) {
		t.Fatalf("unexpected sequences %v", collected)
	}
	for i, seq := range want {
		if collected[i] != seq {
			t.Fatalf("unexpected sequences %v", collected)
		}
	}
}

func TestStreamFallsBackToIPC(t *testing.T) {
	var apiClient *logs.StreamClient
	fallback := &fakeEventsClient{fn: func(req ipc.EventsRequest) (*ipc.EventsResponse, error) {
		if req.Since != 0 || req.WaitMillis != 0 {
			t.Errorf("unexpected replay request %+v", req)
		}
		return &ipc.EventsResponse{
			Events: []events.Event{
				{Sequence: 1, Type: events.TypeLocation, Payload: "/tmp/latest.log"},
				{Sequence: 2, Type: events.TypeUpdate, Payload: "one"},
				{Sequence: 3, Type: events.TypeUpdate, Payload: "two"},
			},
			Next: 3,
		}, nil
	}}

	var collected []uint64
	printed, err := eventstream.Stream(context.Background(), apiClient, fallback,
		eventstream.Options{Tail: 2}, collectSequences(&collected))
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !printed {
		t.Fatal("expected printed=true")
	}
	if len(collected) != 2 || collected[0] != 2 || collected[1] != 3 {
		t.Fatalf("replay should trim to the most recent events, got %v", collected)
	}
}

func TestStreamFollowOverIPC(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	fallback := &fakeEventsClient{fn: func(req ipc.EventsRequest) (*ipc.EventsResponse, error) {
		switch calls.Add(1) {
		case 1:
			return &ipc.EventsResponse{
				Events: []events.Event{{Sequence: 1, Type: events.TypeLocation, Payload: "/tmp/latest.log"}},
				Next:   1,
			}, nil
		default:
			if req.Since != 1 {
				t.Errorf("follow request since=%d, want 1", req.Since)
			}
			if req.WaitMillis <= 0 {
				t.Errorf("follow request should long poll, got wait %d", req.WaitMillis)
			}
			cancel()
			return &ipc.EventsResponse{
				Events: []events.Event{{Sequence: 2, Type: events.TypeUpdate, Payload: "content"}},
				Next:   2,
			}, nil
		}
	}}

	var apiClient *logs.StreamClient
	var collected []uint64
	printed, err := eventstream.Stream(ctx, apiClient, fallback,
		eventstream.Options{Follow: true}, collectSequences(&collected))
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !printed {
		t.Fatal("expected printed=true")
	}
	if len(collected) != 2 || collected[0] != 1 || collected[1] != 2 {
		t.Fatalf("unexpected sequences %v", collected)
	}
}

func TestStreamWithoutAnyTransport(t *testing.T) {
	var apiClient *logs.StreamClient
	printed, err := eventstream.Stream(context.Background(), apiClient, nil, eventstream.Options{}, nil)
	if printed {
		t.Fatal("expected printed=false")
	}
	if !errors.Is(err, logs.ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable, got %v", err)
	}
}
