package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "parkour", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Watch.LogPath != "" {
		t.Fatalf("expected empty watch target by default, got %q", cfg.Watch.LogPath)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Notifications.NtfyServer != "https://ntfy.sh" {
		t.Fatalf("unexpected ntfy server default: %q", cfg.Notifications.NtfyServer)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("expected log dir to exist: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected %q to be directory", cfg.Paths.LogDir)
	}

	if got := cfg.SocketPath(); got != filepath.Join(cfg.Paths.LogDir, "parkour.sock") {
		t.Fatalf("unexpected socket path: %q", got)
	}
	if got := cfg.LockPath(); got != filepath.Join(cfg.Paths.LogDir, "parkour.lock") {
		t.Fatalf("unexpected lock path: %q", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "parkour.toml")

	type payload struct {
		Paths struct {
			APIBind string `toml:"api_bind"`
		} `toml:"paths"`
		Watch struct {
			LogPath         string   `toml:"log_path"`
			ExtraCandidates []string `toml:"extra_candidates"`
		} `toml:"watch"`
		Logging struct {
			Level string `toml:"level"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.APIBind = "127.0.0.1:9999"
	custom.Watch.LogPath = filepath.Join(tempDir, "latest.log")
	custom.Watch.ExtraCandidates = []string{filepath.Join(tempDir, "alt", "latest.log"), "", filepath.Join(tempDir, "alt", "latest.log")}
	custom.Logging.Level = "debug"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9999" {
		t.Fatalf("expected api bind override, got %q", cfg.Paths.APIBind)
	}
	if cfg.Watch.LogPath != filepath.Join(tempDir, "latest.log") {
		t.Fatalf("expected watch target from file, got %q", cfg.Watch.LogPath)
	}
	if len(cfg.Watch.ExtraCandidates) != 1 {
		t.Fatalf("expected duplicate and empty candidates dropped, got %v", cfg.Watch.ExtraCandidates)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.Logging.Level)
	}
}

func TestEnvVarSuppliesNtfyTopic(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PARKOUR_NTFY_TOPIC", "env-topic")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "env-topic" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestTildeExpansion(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	expanded, err := config.ExpandPath("~/.minecraft/logs/latest.log")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(tempHome, ".minecraft", "logs", "latest.log")
	if expanded != want {
		t.Fatalf("unexpected expansion: got %q want %q", expanded, want)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "log_dir") {
		t.Fatalf("sample config missing log_dir: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7519" {
		t.Fatalf("expected sample to carry default api bind, got %q", cfg.Paths.APIBind)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.APIBind = "not-a-bind"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed api bind")
	}

	cfg = config.Default()
	cfg.Paths.LogDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing log dir")
	}

	cfg = config.Default()
	cfg.Notifications.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive request timeout")
	}
}
