package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Kirkezz/parkour-analyzer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp log directory per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	if err := os.MkdirAll(cfgVal.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPinnedLog pins the watch target to an explicit file on the test config.
func WithPinnedLog(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.LogPath = path
	}
}

// WithExtraCandidates appends candidate log locations on the test config.
func WithExtraCandidates(paths ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.ExtraCandidates = append(b.cfg.Watch.ExtraCandidates, paths...)
	}
}

// WithAPIBind overrides the HTTP API bind address on the test config.
func WithAPIBind(bind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIBind = bind
	}
}

// WithNtfy points notifications at the given server and topic.
func WithNtfy(server, topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyServer = server
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
