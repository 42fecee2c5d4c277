package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// maxSegmentBytes bounds a single content segment file before the writer
// rotates to a new one, keeping any single file small enough to reopen
// and scan quickly during recovery.
const maxSegmentBytes = 8 * 1024 * 1024

// Segments is the append-only content store backing the structured index
// (spec §4.2): record content is appended to a segment file and the
// structured index keeps only the (path, offset, length) pointer plus a
// denormalized copy for FTS and previews. Single-appender per owner, so
// callers must serialize Append calls the same way the rest of the
// per-owner store is serialized (spec §5).
type Segments struct {
	mu      sync.Mutex
	dir     string
	current *os.File
	offset  int64
}

// OpenSegments opens (creating if necessary) the segment directory for an
// owner root and positions the writer at the end of the newest segment.
func OpenSegments(ownerRoot string) (*Segments, error) {
	dir := filepath.Join(ownerRoot, "segments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create segment dir: %w", err)
	}
	s := &Segments{dir: dir}
	if err := s.openLatestOrNew(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Segments) openLatestOrNew() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("list segments: %w", err)
	}
	var newest string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if newest == "" || e.Name() > newest {
			newest = e.Name()
		}
	}
	if newest == "" {
		return s.rotate()
	}
	path := filepath.Join(s.dir, newest)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat segment: %w", err)
	}
	if info.Size() >= maxSegmentBytes {
		return s.rotate()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open segment: %w", err)
	}
	s.current = f
	s.offset = info.Size()
	return nil
}

func (s *Segments) rotate() error {
	if s.current != nil {
		s.current.Close()
	}
	name := fmt.Sprintf("seg-%020d.log", time.Now().UnixNano())
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("create segment: %w", err)
	}
	s.current = f
	s.offset = 0
	return nil
}

// Append writes content to the active segment, rotating first if it would
// overflow maxSegmentBytes, and returns the pointer needed to read it back.
func (s *Segments) Append(content []byte) (path string, offset int64, length int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.offset+int64(len(content)) > maxSegmentBytes {
		if err := s.rotate(); err != nil {
			return "", 0, 0, err
		}
	}

	n, err := s.current.Write(content)
	if err != nil {
		return "", 0, 0, fmt.Errorf("append content: %w", err)
	}
	if err := s.current.Sync(); err != nil {
		return "", 0, 0, fmt.Errorf("sync content: %w", err)
	}

	path = s.current.Name()
	offset = s.offset
	length = int64(n)
	s.offset += length
	return path, offset, length, nil
}

// Read reads back a content span previously returned by Append.
func (s *Segments) Read(path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open segment for read: %w", err)
	}
	defer f.Close()

	buf := make([]byte, length)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("read segment span: %w", err)
	}
	return buf, nil
}

// Close releases the active segment file handle.
func (s *Segments) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.Close()
}
