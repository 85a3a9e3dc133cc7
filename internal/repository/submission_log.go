package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmehdipour/contact-site/internal/model"
	"go.uber.org/zap"
)

// MaxLineBytes caps a single log line read back by Recent; longer lines are skipped.
var MaxLineBytes = 1 << 20

// ErrNoLogs is returned by Recent when the requested day has no log file.
var ErrNoLogs = errors.New("no logs for day")

// SubmissionLogRepository persists submission attempts as append-only JSON lines,
// one file per UTC calendar day.
type SubmissionLogRepository interface {
	Append(ctx context.Context, e model.LogEntry) error
	Recent(ctx context.Context, day time.Time, limit int) ([]model.LogEntry, error)
	Dir() string
}

// FileSubmissionLog is the file-backed implementation.
type FileSubmissionLog struct {
	dir string
	log *zap.Logger

	// serializes writers inside this process; O_APPEND covers the rest
	mu sync.Mutex
}

// NewFileSubmissionLog creates dir if missing and returns the repository.
func NewFileSubmissionLog(dir string, log *zap.Logger) (*FileSubmissionLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty submissions dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create submissions dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileSubmissionLog{dir: dir, log: log}, nil
}

func (r *FileSubmissionLog) Dir() string { return r.dir }

// FileFor returns the log file path for the UTC day containing t.
func (r *FileSubmissionLog) FileFor(t time.Time) string {
	return filepath.Join(r.dir, "contact-"+t.UTC().Format(time.DateOnly)+".log")
}

// Append writes e as a single line to the file of e.Timestamp's UTC day.
func (r *FileSubmissionLog) Append(ctx context.Context, e model.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.Status.Valid() {
		return fmt.Errorf("invalid status %q", e.Status)
	}

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	b = append(b, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.FileFor(e.Timestamp), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("write log entry: %w", err)
	}

	return f.Close()
}

// Recent returns up to limit entries from the end of day's file, oldest first.
func (r *FileSubmissionLog) Recent(ctx context.Context, day time.Time, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	path := r.FileFor(day)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoLogs
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	// ring of the last `limit` entries
	ring := make([]model.LogEntry, 0, limit)
	next := 0

	br := bufio.NewReader(f)
	lineNo := 0
	for {
		line, tooLong, err := readLine(br, MaxLineBytes)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log file: %w", err)
		}
		eof := err != nil

		if len(line) > 0 || tooLong || !eof {
			lineNo++
		}
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		switch {
		case tooLong:
			r.log.Warn("skipping oversized log line",
				zap.String("file", path), zap.Int("line", lineNo), zap.Int("max_bytes", MaxLineBytes))
		case len(bytes.TrimSpace(line)) == 0:
		default:
			var e model.LogEntry
			if err := json.Unmarshal(line, &e); err != nil {
				r.log.Warn("skipping malformed log line",
					zap.String("file", path), zap.Int("line", lineNo), zap.Error(err))
				break
			}
			if len(ring) < limit {
				ring = append(ring, e)
			} else {
				ring[next] = e
				next = (next + 1) % limit
			}
		}

		if eof {
			break
		}
	}

	out := make([]model.LogEntry, 0, len(ring))
	out = append(out, ring[next:]...)
	out = append(out, ring[:next]...)

	return out, nil
}

// readLine returns the next line without its newline. When the line exceeds maxBytes
// bytes the rest of it is drained and tooLong is set instead.
func readLine(br *bufio.Reader, maxBytes int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxBytes+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if tooLong {
			return nil, true, err
		}
		return bytes.TrimRight(line, "\r\n"), false, err
	}
}
