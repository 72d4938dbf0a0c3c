package store

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/splan/core/history"
)

// RotatingJSONLStore stores records in a JSONL file with automatic rotation.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   false,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

// Append writes the record and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(_ context.Context, rec history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.NewEncoder(s.logger).Encode(rec)
}

// Query reads the active and rotated files. Records are returned newest
// first; lines that fail to decode are skipped.
func (s *RotatingJSONLStore) Query(_ context.Context, q history.Query) ([]history.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, err := filepath.Glob(s.path + "*")
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(s.path)
	rotated, _ := filepath.Glob(s.path[:len(s.path)-len(ext)] + "-*" + ext)
	files = append(files, rotated...)

	var res []history.Record
	seen := make(map[string]bool)
	for _, f := range files {
		if seen[f] {
			continue
		}
		seen[f] = true
		file, err := os.Open(f)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			var r history.Record
			if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
				continue
			}
			if q.Match(r) {
				res = append(res, r)
			}
		}
		_ = file.Close()
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Time.After(res[j].Time) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[:q.Limit]
	}
	return res, nil
}

// Latest returns the most recent record.
func (s *RotatingJSONLStore) Latest(ctx context.Context) (history.Record, error) {
	res, err := s.Query(ctx, history.Query{Limit: 1})
	if err != nil {
		return history.Record{}, err
	}
	if len(res) == 0 {
		return history.Record{}, history.ErrNotFound
	}
	return res[0], nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	return s.logger.Close()
}
