package config

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"bilitrack-go/internal/cookie"
)

// Config is the root configuration for the collector and its tools.
type Config struct {
	CookiePool CookiePoolConfig `yaml:"cookie_pool"`
	Task       TaskConfig       `yaml:"task"`
	Storage    StorageConfig    `yaml:"storage"`
	Notify     NotifyConfig     `yaml:"notify"`
	Monitor    MonitorConfig    `yaml:"monitor"`

	Debug   bool   `yaml:"debug"`
	LogFile string `yaml:"log_file"`
}

// CookiePoolConfig drives the cookie pool manager.
type CookiePoolConfig struct {
	SelectionMode        string               `yaml:"selection_mode"`
	CandidateCount       int                  `yaml:"candidate_count"`
	AutoDisable          *bool                `yaml:"auto_disable"`
	MaxPoolSize          int                  `yaml:"max_pool_size"`
	HealthCheckEndpoints []string             `yaml:"health_check_endpoints"`
	CheckIntervalHours   int                  `yaml:"check_interval_hours"`
	ProbeTimeoutSeconds  int                  `yaml:"probe_timeout_seconds"`
	// ProbeBatchIntervalMinutes is the minimum spacing between batch
	// health probes; a batch requested sooner is a no-op.
	ProbeBatchIntervalMinutes int                  `yaml:"probe_batch_interval_minutes"`
	Cookies                   []cookie.ConfigEntry `yaml:"cookies"`
}

// AutoDisableEnabled defaults the toggle to on.
func (c *CookiePoolConfig) AutoDisableEnabled() bool {
	if c.AutoDisable == nil {
		return true
	}
	return *c.AutoDisable
}

// TaskConfig describes what the collector gathers.
type TaskConfig struct {
	CreatorIDs           []int64 `yaml:"creator_ids"`
	MaxVideosPerCreator  int     `yaml:"max_videos_per_creator"`
	MaxCommentsPerVideo  int     `yaml:"max_comments_per_video"`
	CrawlIntervalSeconds float64 `yaml:"crawl_interval_seconds"`
	EnableComments       bool    `yaml:"enable_comments"`
	DailyWindowHours     int     `yaml:"daily_window_hours"`
}

// StorageConfig controls where results and pool state land.
type StorageConfig struct {
	DataDir      string `yaml:"data_dir"`
	DatabasePath string `yaml:"database_path"`
	StatePath    string `yaml:"state_path"`
	StateBackend string `yaml:"state_backend"` // file | redis
	RedisAddr    string `yaml:"redis_addr"`
	RedisPrefix  string `yaml:"redis_prefix"`
	ExportCSV    bool   `yaml:"export_csv"`
}

// NotifyConfig configures the webhook notifier.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// MonitorConfig configures the pool status HTTP service.
type MonitorConfig struct {
	Listen            string `yaml:"listen"`
	ManagementKey     string `yaml:"management_key"`
	ManagementKeyHash string `yaml:"management_key_hash"`
}

// Default returns a config with working defaults for a local run.
func Default() *Config {
	return &Config{
		CookiePool: CookiePoolConfig{
			SelectionMode:             cookie.ModeRandom,
			CandidateCount:            cookie.DefaultCandidateCount,
			MaxPoolSize:               cookie.MaxPoolSize,
			HealthCheckEndpoints:      []string{cookie.DefaultHealthEndpoint},
			CheckIntervalHours:        6,
			ProbeTimeoutSeconds:       10,
			ProbeBatchIntervalMinutes: 5,
		},
		Task: TaskConfig{
			MaxVideosPerCreator:  50,
			MaxCommentsPerVideo:  20,
			CrawlIntervalSeconds: 2,
			EnableComments:       true,
			DailyWindowHours:     24,
		},
		Storage: StorageConfig{
			DataDir:      "data",
			DatabasePath: "data/database/bilibili_tracking.db",
			StateBackend: "file",
			RedisPrefix:  "bilitrack",
		},
		Monitor: MonitorConfig{
			Listen: ":8080",
		},
	}
}

// Load reads the YAML file at path, expands ${VAR} references, applies
// environment overrides and validates the result. A missing file yields the
// defaults so CI runs can be driven by environment alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("config file %s not found, using defaults", path)
			applyEnvOverrides(cfg)
			cfg.normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.normalize()
	return cfg, nil
}

// expandEnv substitutes ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnv(input string) string {
	return os.Expand(input, func(name string) string {
		return os.Getenv(name)
	})
}

// normalize clamps out-of-range values instead of rejecting the file.
func (c *Config) normalize() {
	switch c.CookiePool.SelectionMode {
	case cookie.ModeRandom, cookie.ModeRoundRobin, cookie.ModePriority:
	default:
		if c.CookiePool.SelectionMode != "" {
			log.Warnf("unknown selection_mode %q, using random", c.CookiePool.SelectionMode)
		}
		c.CookiePool.SelectionMode = cookie.ModeRandom
	}
	if c.CookiePool.MaxPoolSize <= 0 || c.CookiePool.MaxPoolSize > cookie.MaxPoolSize {
		c.CookiePool.MaxPoolSize = cookie.MaxPoolSize
	}
	if c.CookiePool.CandidateCount <= 0 {
		c.CookiePool.CandidateCount = cookie.DefaultCandidateCount
	}
	if len(c.CookiePool.HealthCheckEndpoints) == 0 {
		c.CookiePool.HealthCheckEndpoints = []string{cookie.DefaultHealthEndpoint}
	}
	if c.CookiePool.ProbeBatchIntervalMinutes <= 0 {
		c.CookiePool.ProbeBatchIntervalMinutes = 5
	}
	if c.Task.CrawlIntervalSeconds <= 0 {
		c.Task.CrawlIntervalSeconds = 2
	}
	if c.Storage.StateBackend == "" {
		c.Storage.StateBackend = "file"
	}
	if c.Storage.StatePath == "" {
		c.Storage.StatePath = cookie.DefaultStatePath()
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = "data"
	}
}
