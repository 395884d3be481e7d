package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lpYield/internal/model"
)

// jsonlLine is one persisted record stamped with its computation time.
type jsonlLine struct {
	ComputedAt string `json:"computed_at"`
	model.PoolYieldRecord
}

// JsonlStorage appends pool yield records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutYieldBatch appends a batch of records as JSON lines.
func (s *JsonlStorage) PutYieldBatch(_ context.Context, computedAt time.Time, records []model.PoolYieldRecord) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	stamp := computedAt.UTC().Format(time.RFC3339Nano)
	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(jsonlLine{ComputedAt: stamp, PoolYieldRecord: record})
		if err != nil {
			return fmt.Errorf("marshal yield record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write yield record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
