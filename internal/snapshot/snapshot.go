package snapshot

import (
	"encoding/binary"
	"hash/fnv"
	"os"
)

const (
	// sampleThreshold is the content size above which only the head and tail
	// windows feed the fingerprint.
	sampleThreshold = 1024
	// sampleWindow is the size of each sampled window for large content.
	sampleWindow = 512
)

// Snapshot pairs full file content with its change fingerprint.
type Snapshot struct {
	Content     string
	Fingerprint uint64
}

// Fingerprint computes a 64-bit digest of content. The total length always
// participates; for content larger than sampleThreshold bytes only the first
// and last sampleWindow bytes are hashed, so append-heavy logs fingerprint in
// constant time. Edits confined to the unsampled middle of a large file are
// invisible, which is acceptable for append-only logs.
func Fingerprint(content []byte) uint64 {
	digest := fnv.New64a()
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(content)))
	digest.Write(length[:])
	if len(content) > sampleThreshold {
		digest.Write(content[:sampleWindow])
		digest.Write(content[len(content)-sampleWindow:])
	} else {
		digest.Write(content)
	}
	return digest.Sum64()
}

// Take reads path in full and returns its content alongside the fingerprint.
// Errors are returned unwrapped so callers can distinguish a missing file
// from an unreadable one with errors.Is.
func Take(path string) (Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Content: string(content), Fingerprint: Fingerprint(content)}, nil
}
