package api

import (
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/logpath"
	"github.com/Kirkezz/parkour-analyzer/internal/watch"
)

// FromWatchStatus converts a loop snapshot to its API representation.
func FromWatchStatus(st watch.Status) WatchStatus {
	dto := WatchStatus{
		State:      string(st.State),
		ActivePath: st.ActivePath,
		LastError:  st.LastError,
		Updates:    st.Updates,
	}
	if !st.StartedAt.IsZero() {
		dto.StartedAt = st.StartedAt.UTC().Format(dateTimeFormat)
	}
	if !st.LastUpdateAt.IsZero() {
		dto.LastUpdateAt = st.LastUpdateAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromCandidates converts resolver candidates into DTOs, using exists to
// mark which ones are present on disk.
func FromCandidates(candidates []logpath.Candidate, exists func(string) bool) []PathCandidate {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]PathCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		dto := PathCandidate{Path: candidate.Path, Client: candidate.Client}
		if exists != nil {
			dto.Exists = exists(candidate.Path)
		}
		out = append(out, dto)
	}
	return out
}

// FormatTime renders a timestamp for API payloads, empty for zero times.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
