package cookie

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// PoolState is the persisted snapshot of the pool's mutable data.
type PoolState struct {
	Timestamp       time.Time              `json:"timestamp"`
	UsageHistory    []UsageEvent           `json:"usage_history"`
	UsageStatistics map[string]*UsageStats `json:"usage_statistics"`
	FailedCookies   []string               `json:"failed_cookies"`
	CookieStates    map[string]*State      `json:"cookie_states,omitempty"`
}

// StateStore abstracts persistence of the pool snapshot.
type StateStore interface {
	Save(ctx context.Context, state *PoolState) error
	Load(ctx context.Context) (*PoolState, error)
}

// FileStateStore keeps the pool snapshot in a single JSON file,
// written atomically via a temp file rename.
type FileStateStore struct {
	Path string
}

// NewFileStateStore creates a file-backed store at path.
func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{Path: path}
}

func (f *FileStateStore) Save(_ context.Context, state *PoolState) error {
	if f == nil || f.Path == "" || state == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (f *FileStateStore) Load(_ context.Context) (*PoolState, error) {
	if f == nil || f.Path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	var st PoolState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	if st.UsageStatistics == nil {
		st.UsageStatistics = make(map[string]*UsageStats)
	}
	return &st, nil
}

// DefaultStatePath returns the conventional state file location under the
// user cache directory, falling back to the working directory.
func DefaultStatePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "bilibili-cookie-usage-history.json"
	}
	return filepath.Join(dir, "bilibili-cookie-usage-history.json")
}
