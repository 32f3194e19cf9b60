package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/daemon"
	"github.com/Kirkezz/parkour-analyzer/internal/events"
	"github.com/Kirkezz/parkour-analyzer/internal/ipc"
	"github.com/Kirkezz/parkour-analyzer/internal/logging"
	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
	"github.com/Kirkezz/parkour-analyzer/internal/testsupport"
)

func TestIPCServerClient(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", "")

	logFile := filepath.Join(t.TempDir(), "latest.log")
	testsupport.WriteFile(t, logFile, "[12:00:00] joined the game\n")

	cfg := testsupport.NewConfig(t, testsupport.WithPinnedLog(logFile))
	hub := events.NewHub(32)
	logger := logging.NewNop()
	d, err := daemon.New(cfg, hub, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	socket := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping RPC failed: %v", err)
	}
	if ping.PID != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), ping.PID)
	}
	if ping.SessionID == "" || !ping.Running {
		t.Fatalf("unexpected ping response: %#v", ping)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if status.SocketPath != socket {
		t.Fatalf("expected socket path %q, got %q", socket, status.SocketPath)
	}

	contentResp, err := client.LogContent()
	if err != nil {
		t.Fatalf("LogContent RPC failed: %v", err)
	}
	if contentResp.Path != logFile || !strings.Contains(contentResp.Content, "joined the game") {
		t.Fatalf("unexpected content response: %#v", contentResp)
	}
	if contentResp.Fingerprint == 0 {
		t.Fatal("expected non-zero fingerprint")
	}

	locResp, err := client.LogLocation()
	if err != nil {
		t.Fatalf("LogLocation RPC failed: %v", err)
	}
	if locResp.Path != logFile {
		t.Fatalf("expected location %q, got %q", logFile, locResp.Path)
	}

	pathsResp, err := client.DefaultPaths()
	if err != nil {
		t.Fatalf("DefaultPaths RPC failed: %v", err)
	}
	if len(pathsResp.Candidates) == 0 {
		t.Fatal("expected at least one candidate")
	}
	first := pathsResp.Candidates[0]
	if first.Path != logFile || first.Client != logpath.ClientPinned || !first.Exists {
		t.Fatalf("unexpected first candidate: %#v", first)
	}
	if pathsResp.Active != logFile {
		t.Fatalf("expected active path %q, got %q", logFile, pathsResp.Active)
	}

	validResp, err := client.ValidatePath(logFile)
	if err != nil {
		t.Fatalf("ValidatePath RPC failed: %v", err)
	}
	if !validResp.Valid {
		t.Fatal("expected pinned log to validate")
	}
	invalidResp, err := client.ValidatePath(filepath.Join(t.TempDir(), "absent.log"))
	if err != nil {
		t.Fatalf("ValidatePath RPC failed: %v", err)
	}
	if invalidResp.Valid {
		t.Fatal("expected missing path to be invalid")
	}

	// The loop announces the pinned log shortly after start.
	var initial *ipc.EventsResponse
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Events(ipc.EventsRequest{})
		if err != nil {
			t.Fatalf("Events RPC failed: %v", err)
		}
		if len(resp.Events) >= 2 {
			initial = resp
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if initial == nil {
		t.Fatal("timed out waiting for watch events")
	}
	if initial.Events[0].Type != events.TypeLocation || initial.Events[1].Type != events.TypeUpdate {
		t.Fatalf("unexpected initial events: %#v", initial.Events)
	}

	probeFile := filepath.Join(t.TempDir(), "probe.log")
	testsupport.WriteFile(t, probeFile, "[12:01:00] probe line\n")

	waitDone := make(chan *ipc.EventsResponse, 1)
	go func(since uint64) {
		resp, err := client.Events(ipc.EventsRequest{Since: since, WaitMillis: 5000})
		if err != nil {
			t.Errorf("Events follow error: %v", err)
			waitDone <- nil
			return
		}
		waitDone <- resp
	}(initial.Next)

	time.Sleep(100 * time.Millisecond)
	probeResp, err := client.Probe(probeFile)
	if err != nil {
		t.Fatalf("Probe RPC failed: %v", err)
	}
	if !probeResp.Announced {
		t.Fatal("expected probe to be announced")
	}

	select {
	case resp := <-waitDone:
		if resp == nil {
			t.Fatal("events follow failed")
		}
		if len(resp.Events) == 0 || resp.Events[0].Type != events.TypeLocation || resp.Events[0].Payload != probeFile {
			t.Fatalf("unexpected follow events: %#v", resp.Events)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("events follow timed out")
	}

	testsupport.WriteFile(t, d.LogPath(), "first\nsecond\nthird\n")

	tailResp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("LogTail initial failed: %v", err)
	}
	if len(tailResp.Lines) != 2 || tailResp.Lines[0] != "second" || tailResp.Lines[1] != "third" {
		t.Fatalf("unexpected log tail response: %#v", tailResp.Lines)
	}

	followDone := make(chan struct{})
	go func(offset int64) {
		resp, err := client.LogTail(ipc.LogTailRequest{Offset: offset, Follow: true, WaitMillis: 500})
		if err != nil {
			t.Errorf("LogTail follow error: %v", err)
			return
		}
		if len(resp.Lines) != 1 || resp.Lines[0] != "fourth" {
			t.Errorf("unexpected follow lines: %#v", resp.Lines)
		}
		close(followDone)
	}(tailResp.Offset)

	time.Sleep(100 * time.Millisecond)
	testsupport.AppendFile(t, d.LogPath(), "fourth\n")

	select {
	case <-followDone:
	case <-time.After(10 * time.Second):
		t.Fatal("log tail follow timed out")
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message != "ntfy topic not configured" {
		t.Fatalf("unexpected notification response: %#v", notifyResp)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}

	status2, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status2.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestIPCStopInvokesShutdownCallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", "")

	cfg := testsupport.NewConfig(t)
	hub := events.NewHub(8)
	d, err := daemon.New(cfg, hub, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	fired := make(chan struct{})
	srv.OnShutdown(func() { close(fired) })
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stop to be acknowledged")
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback never fired")
	}
}
