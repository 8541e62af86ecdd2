package cookie

import (
	"context"
	"os"
	"strconv"
)

// Source produces cookie entries from some backing location, such as the
// YAML config or CI environment variables.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]*Info, error)
}

// ConfigEntry is one cookie definition as it appears in configuration.
type ConfigEntry struct {
	Name        string `yaml:"name" json:"name"`
	Cookie      string `yaml:"cookie" json:"cookie"`
	Priority    int    `yaml:"priority" json:"priority"`
	Enabled     *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	MaxFailures int    `yaml:"max_failures,omitempty" json:"max_failures,omitempty"`
}

// ConfigSource adapts config file entries into pool entries.
type ConfigSource struct {
	entries []ConfigEntry
}

// NewConfigSource creates a source over the given config entries.
func NewConfigSource(entries []ConfigEntry) *ConfigSource {
	return &ConfigSource{entries: entries}
}

func (s *ConfigSource) Name() string { return "config" }

func (s *ConfigSource) Load(_ context.Context) ([]*Info, error) {
	out := make([]*Info, 0, len(s.entries))
	for i, entry := range s.entries {
		if entry.Cookie == "" {
			continue
		}
		name := entry.Name
		if name == "" {
			name = defaultEntryName(i)
		}
		priority := entry.Priority
		if priority <= 0 {
			priority = i + 1
		}
		info := NewInfo(name, entry.Cookie, priority)
		if entry.Enabled != nil {
			info.Enabled = *entry.Enabled
		}
		if entry.MaxFailures > 0 {
			info.MaxFailures = entry.MaxFailures
		}
		info.Source = s.Name()
		out = append(out, info)
	}
	return out, nil
}

func defaultEntryName(index int) string {
	if index == 0 {
		return "main"
	}
	return "cookie_" + strconv.Itoa(index)
}

// RunningInCI reports whether the process runs inside a CI environment where
// local state files do not survive between runs.
func RunningInCI() bool {
	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}
	if os.Getenv("CI") == "true" {
		return true
	}
	if os.Getenv("GITHUB_WORKFLOW") != "" {
		return true
	}
	return false
}
