package logpath

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// LogFileName is the filename every candidate location points at. Change
// signals for other files in the watched directory are ignored.
const LogFileName = "latest.log"

// Client labels identify which installation layout produced a candidate.
const (
	ClientMinecraft = "minecraft"
	ClientLunar     = "lunar-client"
	ClientPinned    = "pinned"
	ClientExtra     = "extra"
)

// Candidate describes one plausible on-disk location of the live game log.
type Candidate struct {
	Path   string `json:"path"`
	Client string `json:"client"`
}

// platformPaths produces the ordered built-in candidate paths for one host
// platform. The primary game client location always precedes the alternate
// launcher location.
type platformPaths interface {
	candidates() []Candidate
}

type windowsPaths struct{}

func (windowsPaths) candidates() []Candidate {
	appData := strings.TrimSpace(os.Getenv("APPDATA"))
	if appData == "" {
		return nil
	}
	return []Candidate{
		{Path: filepath.Join(appData, ".minecraft", "logs", LogFileName), Client: ClientMinecraft},
		{Path: filepath.Join(appData, ".lunarclient", "offline", "multiver", "logs", LogFileName), Client: ClientLunar},
	}
}

type darwinPaths struct{}

func (darwinPaths) candidates() []Candidate {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []Candidate{
		{Path: filepath.Join(home, "Library", "Application Support", "minecraft", "logs", LogFileName), Client: ClientMinecraft},
		{Path: filepath.Join(home, ".lunarclient", "offline", "multiver", "logs", LogFileName), Client: ClientLunar},
	}
}

type unixPaths struct{}

func (unixPaths) candidates() []Candidate {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []Candidate{
		{Path: filepath.Join(home, ".minecraft", "logs", LogFileName), Client: ClientMinecraft},
		{Path: filepath.Join(home, ".lunarclient", "offline", "multiver", "logs", LogFileName), Client: ClientLunar},
	}
}

// Resolver builds the ordered candidate list for the current host and picks
// the first location that exists. It is stateless and cheap; callers retry it
// while the target file does not exist yet.
type Resolver struct {
	platform platformPaths
	pinned   string
	extra    []string
}

// Option customizes resolver construction.
type Option func(*Resolver)

// WithPinnedPath places an explicit path ahead of every built-in candidate.
func WithPinnedPath(path string) Option {
	return func(r *Resolver) {
		r.pinned = strings.TrimSpace(path)
	}
}

// WithExtraCandidates appends additional locations after the built-in ones.
func WithExtraCandidates(paths []string) Option {
	return func(r *Resolver) {
		for _, path := range paths {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				r.extra = append(r.extra, trimmed)
			}
		}
	}
}

// WithPlatform overrides host platform detection. Primarily used by tests;
// accepts GOOS values.
func WithPlatform(goos string) Option {
	return func(r *Resolver) {
		r.platform = platformFor(goos)
	}
}

// New constructs a resolver for the current platform.
func New(opts ...Option) *Resolver {
	r := &Resolver{platform: platformFor(runtime.GOOS)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func platformFor(goos string) platformPaths {
	switch goos {
	case "windows":
		return windowsPaths{}
	case "darwin":
		return darwinPaths{}
	default:
		return unixPaths{}
	}
}

// Candidates returns the full ordered candidate list without filtering on
// existence. Entries whose environment lookup failed are dropped.
func (r *Resolver) Candidates() []Candidate {
	if r == nil {
		return nil
	}
	out := make([]Candidate, 0, len(r.extra)+3)
	if r.pinned != "" {
		out = append(out, Candidate{Path: r.pinned, Client: ClientPinned})
	}
	if r.platform != nil {
		out = append(out, r.platform.candidates()...)
	}
	for _, path := range r.extra {
		out = append(out, Candidate{Path: path, Client: ClientExtra})
	}
	return out
}

// Resolve returns the first candidate that exists on the filesystem.
func (r *Resolver) Resolve() (string, bool) {
	for _, candidate := range r.Candidates() {
		if exists(candidate.Path) {
			return candidate.Path, true
		}
	}
	return "", false
}

// Valid reports whether an arbitrary caller-supplied path exists.
func (r *Resolver) Valid(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	return exists(path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
