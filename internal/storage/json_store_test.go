package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestJSONStoreWrite(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(dir)
	at := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)

	snap := &Snapshot{
		RunID:          "run-1",
		TaskType:       TaskDaily,
		CollectionTime: at,
		Creator:        *creatorAt(12345, at),
		Videos:         []VideoRecord{videoAt(1001, 12345, at)},
	}

	path, err := store.Write(snap)
	if err != nil {
		t.Fatalf("Write returned %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, TaskDaily) {
		t.Errorf("snapshot path = %s", path)
	}
	wantName := "daily_task_20260827_103000_12345.json"
	if filepath.Base(path) != wantName {
		t.Errorf("file name = %s, want %s", filepath.Base(path), wantName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var loaded Snapshot
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if loaded.RunID != "run-1" || loaded.Creator.Mid != 12345 || len(loaded.Videos) != 1 {
		t.Errorf("loaded snapshot = %+v", loaded)
	}
	if !strings.Contains(string(data), `"up_info"`) {
		t.Error("snapshot missing up_info key")
	}

	// The temp file from the atomic write must be gone.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}
