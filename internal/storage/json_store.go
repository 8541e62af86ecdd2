package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the per-run JSON payload written alongside the database, one
// file per creator per run.
type Snapshot struct {
	RunID          string        `json:"run_id"`
	TaskType       string        `json:"task_type"`
	CollectionTime time.Time     `json:"collection_time"`
	Creator        CreatorRecord `json:"up_info"`
	Videos         []VideoRecord `json:"videos"`
}

// JSONStore writes run snapshots under dataDir, split by task type.
type JSONStore struct {
	dataDir string
}

// NewJSONStore creates a snapshot writer rooted at dataDir.
func NewJSONStore(dataDir string) *JSONStore {
	return &JSONStore{dataDir: dataDir}
}

// Write stores one snapshot atomically and returns the file path.
func (j *JSONStore) Write(snap *Snapshot) (string, error) {
	dir := filepath.Join(j.dataDir, snap.TaskType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("%s_task_%s_%d.json",
		snap.TaskType,
		snap.CollectionTime.Format("20060102_150405"),
		snap.Creator.Mid)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}
