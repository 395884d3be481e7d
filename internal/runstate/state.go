package runstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// StateStore persists the unix time of the last successful yield computation.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, ts uint64) error
}

// FileStateStore keeps the last run time in a small JSON file. Writes go to a
// temp file in the same directory and are renamed into place.
type FileStateStore struct {
	Path string
}

type fileState struct {
	LastRunTS uint64 `json:"last_run_ts"`
	LastRunAt string `json:"last_run_at"`
}

func (s *FileStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read run state %s: %w", s.Path, err)
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return 0, false, fmt.Errorf("parse run state %s: %w", s.Path, err)
	}
	if st.LastRunTS == 0 {
		return 0, false, fmt.Errorf("run state %s has no last_run_ts", s.Path)
	}
	return st.LastRunTS, true, nil
}

func (s *FileStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(fileState{
		LastRunTS: ts,
		LastRunAt: time.Unix(int64(ts), 0).UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create run state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create run state tmp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write run state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync run state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close run state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace run state: %w", err)
	}
	return nil
}

// Due reports whether a new run is allowed at now given the last run and a
// minimum interval. A zero interval always allows a run.
func Due(ctx context.Context, store StateStore, now time.Time, minInterval time.Duration) (bool, error) {
	if store == nil || minInterval <= 0 {
		return true, nil
	}
	last, ok, err := store.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return now.Sub(time.Unix(int64(last), 0)) >= minInterval, nil
}
