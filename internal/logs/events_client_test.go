package logs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/logs"
)

func TestStreamClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("since"); got != "5" {
			t.Errorf("unexpected since param %q", got)
		}
		if got := r.URL.Query().Get("wait_ms"); got != "" {
			t.Errorf("unexpected wait param %q", got)
		}
		_ = json.NewEncoder(w).Encode(api.EventsResponse{
			Events: []events.Event{{Sequence: 6, Type: events.TypeUpdate, Payload: "content"}},
			Next:   6,
			First:  1,
		})
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	resp, err := client.Fetch(context.Background(), logs.StreamQuery{Since: 5, Limit: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Sequence != 6 {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
	if resp.Next != 6 {
		t.Fatalf("unexpected next %d", resp.Next)
	}
}

func TestStreamClientSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		_ = json.NewEncoder(w).Encode(api.EventsResponse{})
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "secret")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Fetch(context.Background(), logs.StreamQuery{}); err != nil {
		t.Fatalf("fetch: %v", err)
	}
}

func TestStreamClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := logs.NewStreamClient(srv.URL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Fetch(context.Background(), logs.StreamQuery{}); err == nil {
		t.Fatal("expected error for 500 response")
	} else if logs.IsAPIUnavailable(err) {
		t.Fatalf("server errors should not classify as unavailable: %v", err)
	}
}

func TestStreamClientEmptyBind(t *testing.T) {
	client, err := logs.NewStreamClient("   ", "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client != nil {
		t.Fatal("expected nil client for empty bind")
	}
	_, err = client.Fetch(context.Background(), logs.StreamQuery{})
	if !errors.Is(err, logs.ErrAPIUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !logs.IsAPIUnavailable(err) {
		t.Fatal("expected unavailable classification")
	}
}

func TestIsAPIUnavailableOnRefusedConnection(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	client, err := logs.NewStreamClient(addr, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Fetch(context.Background(), logs.StreamQuery{})
	if err == nil {
		t.Fatal("expected connection failure")
	}
	if !logs.IsAPIUnavailable(err) {
		t.Fatalf("expected unavailable classification, got %v", err)
	}
}
