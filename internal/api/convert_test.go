package api_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/api"
	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
	"github.com/Kirkezz/parkour-analyzer/internal/watch"
)

func TestFromWatchStatus(t *testing.T) {
	started := time.Date(2026, time.March, 14, 12, 30, 0, 0, time.UTC)
	dto := api.FromWatchStatus(watch.Status{
		State:      watch.StateWatching,
		ActivePath: "/home/player/.minecraft/logs/latest.log",
		Updates:    7,
		StartedAt:  started,
	})

	if dto.State != "watching" {
		t.Fatalf("unexpected state %q", dto.State)
	}
	if dto.Updates != 7 {
		t.Fatalf("unexpected updates %d", dto.Updates)
	}
	if !strings.HasPrefix(dto.StartedAt, "2026-03-14T12:30:00") {
		t.Fatalf("unexpected started_at %q", dto.StartedAt)
	}
	if dto.LastUpdateAt != "" {
		t.Fatalf("expected empty last update for zero time, got %q", dto.LastUpdateAt)
	}
}

func TestFromCandidatesMarksExistence(t *testing.T) {
	candidates := []logpath.Candidate{
		{Path: "/a/latest.log", Client: logpath.ClientMinecraft},
		{Path: "/b/latest.log", Client: logpath.ClientLunar},
	}
	dtos := api.FromCandidates(candidates, func(path string) bool {
		return path == "/b/latest.log"
	})
	if len(dtos) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(dtos))
	}
	if dtos[0].Exists || !dtos[1].Exists {
		t.Fatalf("unexpected existence flags: %+v", dtos)
	}
	if dtos[0].Client != "minecraft" {
		t.Fatalf("unexpected client label %q", dtos[0].Client)
	}
	if api.FromCandidates(nil, nil) != nil {
		t.Fatal("expected nil for empty candidate list")
	}
}

func TestFormatTime(t *testing.T) {
	if api.FormatTime(time.Time{}) != "" {
		t.Fatal("expected empty string for zero time")
	}
	ts := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)
	if got := api.FormatTime(ts); !strings.HasPrefix(got, "2026-01-02T03:04:05") {
		t.Fatalf("unexpected formatted time %q", got)
	}
}
