// Package audit provides an append-only, buffered decision log. Entries are
// written as JSONL, one object per line; rotation and cleanup are external.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ppiankov/claimgate/internal/model"
)

// Log buffers audit entries and appends them to a JSONL file. Flush happens
// when the buffer fills or the flush interval has elapsed since the last
// write. Failed flushes re-queue the entries, so duplicate lines can appear
// after a crash during flush (at-least-once).
type Log struct {
	path          string
	bufferSize    int
	flushInterval time.Duration

	mu        sync.Mutex
	buffer    []model.AuditEntry
	lastFlush time.Time
	closed    bool
}

// NewLog creates an audit log writing to the given path
func NewLog(cfg model.AuditConfig) *Log {
	return &Log{
		path:          cfg.Path,
		bufferSize:    cfg.BufferSize,
		flushInterval: cfg.FlushInterval,
		lastFlush:     time.Now(),
	}
}

// Record buffers one entry, flushing when the buffer is full or the flush
// interval has passed. Never returns an error for the buffered entry itself;
// a failed flush keeps the entries queued for the next attempt.
func (l *Log) Record(entry model.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("audit log is closed")
	}

	l.buffer = append(l.buffer, entry)
	if len(l.buffer) >= l.bufferSize || time.Since(l.lastFlush) >= l.flushInterval {
		return l.flushLocked()
	}
	return nil
}

// Flush writes all buffered entries to disk
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flushLocked()
}

// Close flushes any remaining entries and marks the log closed
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.flushLocked()
	l.closed = true
	return err
}

func (l *Log) flushLocked() error {
	if len(l.buffer) == 0 {
		return nil
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating audit directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	written := 0
	for _, entry := range l.buffer {
		line, err := json.Marshal(entry)
		if err != nil {
			// An unmarshalable entry would block the queue forever; drop it
			written++
			continue
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			break
		}
		written++
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing audit log: %w", err)
	}

	// Keep anything that did not make it to disk queued for the next flush
	l.buffer = l.buffer[written:]
	l.lastFlush = time.Now()
	return nil
}

// Recent returns the last n entries from the log, newest last. Buffered
// entries are flushed first so the result reflects everything recorded.
func (l *Log) Recent(n int) ([]model.AuditEntry, error) {
	if err := l.Flush(); err != nil {
		return nil, err
	}

	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Stats aggregates entries recorded at or after since, grouped by mode and by
// violation type.
func (l *Log) Stats(since time.Time) (*Stats, error) {
	if err := l.Flush(); err != nil {
		return nil, err
	}

	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Since:       since,
		ByMode:      map[string]int{},
		ByViolation: map[string]int{},
	}
	for _, e := range entries {
		if e.Timestamp.Before(since) {
			continue
		}
		stats.Total++
		if e.Allowed {
			stats.Allowed++
		} else {
			stats.Blocked++
		}
		stats.ByMode[string(e.Mode)]++
		for _, v := range e.Violations {
			stats.ByViolation[v]++
		}
	}
	return stats, nil
}

// Stats summarizes audit activity since a point in time
type Stats struct {
	Since       time.Time      `json:"since"`
	Total       int            `json:"total"`
	Allowed     int            `json:"allowed"`
	Blocked     int            `json:"blocked"`
	ByMode      map[string]int `json:"by_mode"`
	ByViolation map[string]int `json:"by_violation"`
}

func (l *Log) readAll() ([]model.AuditEntry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	var entries []model.AuditEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry model.AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines rather than failing the query
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	return entries, nil
}
