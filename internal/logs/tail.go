package logs

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/Kirkezz/parkour-analyzer/internal/services"
)

// pollInterval paces follow-mode checks for fresh lines.
const pollInterval = 200 * time.Millisecond

// maxLineBytes bounds a single log line; longer lines fail the read.
const maxLineBytes = 1024 * 1024

// TailOptions controls one tail read. A negative Offset seeds from the last
// Limit lines of the file; otherwise reading starts at Offset.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read plus the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads lines from the run log at path. A missing file is not an
// error; it yields an empty result with offset zero so followers pick up
// once the file appears. With Follow set and nothing immediately available,
// Tail polls until new lines arrive, Wait elapses, or ctx ends.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, services.Wrap(services.ErrRead, "logs", "stat", path, err)
	}
	if info.IsDir() {
		return result, services.Wrap(services.ErrValidation, "logs", "tail", path+" is a directory", nil)
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		result.Lines, result.Offset, err = seedTail(path, opts.Limit)
	} else {
		start := opts.Offset
		if start > info.Size() {
			start = info.Size()
		}
		result.Lines, result.Offset, err = readAfter(path, start)
	}
	if err != nil {
		return result, err
	}

	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return awaitLines(ctx, path, result.Offset, opts.Wait)
	}
	return result, nil
}

// seedTail returns up to limit trailing lines and the end-of-file offset.
// A limit of zero skips straight to the end so followers only see new lines.
func seedTail(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, services.Wrap(services.ErrRead, "logs", "open", path, err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, services.Wrap(services.ErrRead, "logs", "seek", path, err)
		}
		return nil, end, nil
	}

	scanner := newLineScanner(file)
	var window []string
	for scanner.Scan() {
		window = append(window, scanner.Text())
		if len(window) > limit {
			window = window[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, services.Wrap(services.ErrRead, "logs", "scan", path, err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrRead, "logs", "seek", path, err)
	}
	return window, end, nil
}

// readAfter returns every complete line starting at offset and the offset
// reached. The file vanishing between polls resets the offset to zero.
func readAfter(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, services.Wrap(services.ErrRead, "logs", "open", path, err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, services.Wrap(services.ErrRead, "logs", "seek", path, err)
	}

	scanner := newLineScanner(file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, services.Wrap(services.ErrRead, "logs", "scan", path, err)
	}

	pos, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrRead, "logs", "seek", path, err)
	}
	return lines, pos, nil
}

func awaitLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		lines, next, err := readAfter(path, offset)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if !time.Now().Before(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}
