// Package audit appends a durable, append-only JSONL decision log covering
// access denials, write-path outcomes, and consolidation/team decisions
// (spec §4.1, §7), grounded in the teacher pack's audit trail pattern of
// one JSON object per line under bufio/os rather than a database table.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Kind labels the category of an audit entry.
type Kind string

const (
	KindCreateRecord  Kind = "create_record"
	KindStoreRecord   Kind = "store_record"
	KindAccessDenied  Kind = "access_denied"
	KindConsolidation Kind = "consolidation"
	KindTeamChange    Kind = "team_change"
	KindOverlayFailed Kind = "overlay_failed"
)

// Entry is one line of the audit log.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Actor     string    `json:"actor"`
	TargetID  string    `json:"target_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Log appends entries to a single JSONL file. One Log per owner root,
// matching the per-owner isolation the rest of the substrate uses.
type Log struct {
	mu   sync.Mutex
	path string
	seq  int64
}

// Open opens (creating if necessary) the audit log at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	count, err := countLines(path)
	if err != nil {
		return nil, err
	}
	return &Log{path: path, seq: count}, nil
}

func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audit log for count: %w", err)
	}
	defer f.Close()

	var n int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan audit log: %w", err)
	}
	return n, nil
}

// Append writes one entry, stamping ID and Timestamp if unset, and returns
// the assigned ID. Every absorbed overlay failure must produce an entry
// sufficient to reconstruct the overlay later (spec §7.3's propagation
// policy), so callers pass enough Detail to replay the write.
func (l *Log) Append(e Entry) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	if e.ID == "" {
		e.ID = fmt.Sprintf("%s-%06d", l.path, l.seq)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal audit entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open audit log for append: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("write audit entry: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return "", fmt.Errorf("write audit entry: %w", err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("flush audit entry: %w", err)
	}
	return e.ID, nil
}

// Read loads every entry currently in the log, oldest first. Intended for
// the operator CLI and tests, not the hot write path.
func (l *Log) Read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parse audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return entries, nil
}
