package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable_OK(t *testing.T) {
	f := filepath.Join(t.TempDir(), "latest.log")
	if err := os.WriteFile(f, []byte("[12:00:00] hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckFileReadable("test", f)
	if !result.Passed {
		t.Fatalf("expected pass for readable file, got: %s", result.Detail)
	}
}

func TestCheckFileReadable_Directory(t *testing.T) {
	result := CheckFileReadable("test", t.TempDir())
	if result.Passed {
		t.Fatal("expected failure for directory path")
	}
}

func TestCheckNtfy_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckNtfy(context.Background(), srv.URL)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckNtfy_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := CheckNtfy(context.Background(), srv.URL)
	if result.Passed {
		t.Fatal("expected failure for unhealthy server")
	}
}

func TestCheckNtfy_MissingURL(t *testing.T) {
	result := CheckNtfy(context.Background(), "")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckLogCandidates_Found(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "latest.log")
	if err := os.WriteFile(logFile, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolver := logpath.New(logpath.WithPinnedPath(logFile))
	result := CheckLogCandidates(resolver)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Notifications.NtfyTopic = ""

	results := RunAll(context.Background(), &cfg)
	// Should have only the log directory check
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Passed {
		t.Errorf("check %q failed: %s", results[0].Name, results[0].Detail)
	}
}

func TestRunAll_IncludesNtfyWhenEnabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Notifications.NtfyTopic = "parkour"
	cfg.Notifications.NtfyServer = srv.URL

	results := RunAll(context.Background(), &cfg)
	found := false
	for _, r := range results {
		if r.Name == "ntfy" {
			found = true
			if !r.Passed {
				t.Errorf("ntfy check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected ntfy check in results")
	}
}

func TestProbeLogReportsFirstPresentCandidate(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "latest.log")
	if err := os.WriteFile(logFile, []byte("[12:00:00] joined the game"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("APPDATA", "")
	resolver := logpath.New(
		logpath.WithPlatform("windows"),
		logpath.WithExtraCandidates([]string{logFile}),
	)
	probe := ProbeLog(resolver)
	if !probe.Detected {
		t.Fatal("expected probe to detect the log file")
	}
	if probe.Path != logFile {
		t.Fatalf("expected path %q, got %q", logFile, probe.Path)
	}
	if probe.Client != logpath.ClientExtra {
		t.Fatalf("expected client %q, got %q", logpath.ClientExtra, probe.Client)
	}
	if probe.SizeBytes == 0 {
		t.Fatal("expected non-zero size")
	}
}

func TestProbeLogEmptyWhenNothingPresent(t *testing.T) {
	t.Setenv("APPDATA", "")
	resolver := logpath.New(
		logpath.WithPlatform("windows"),
		logpath.WithPinnedPath(filepath.Join(t.TempDir(), "absent.log")),
	)
	probe := ProbeLog(resolver)
	if probe.Detected {
		t.Fatal("expected no detection for absent candidates")
	}
	if probe.LogDetail() != "No log file detected" {
		t.Fatalf("unexpected detail: %s", probe.LogDetail())
	}
}
