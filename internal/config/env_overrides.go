package config

import (
	"os"
	"strconv"
	"strings"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func setIntFromEnv(key string, setter func(int)) {
	if v := getenv(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			setter(n)
		}
	}
}

func setToggleFromEnv(key string, setter func(bool)) {
	v := strings.ToLower(strings.TrimSpace(getenv(key, "")))
	if v == "" {
		return
	}
	switch v {
	case "1", "true", "yes", "on":
		setter(true)
	case "0", "false", "no", "off":
		setter(false)
	}
}

func splitAndTrim(input, sep string) []string {
	parts := strings.Split(input, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// applyEnvOverrides lets CI runs tune the config without a file.
// BILIBILI_COOKIES* variables are handled by the pool's env source, not here.
func applyEnvOverrides(cfg *Config) {
	if v := getenv("BILITRACK_SELECTION_MODE", ""); v != "" {
		cfg.CookiePool.SelectionMode = v
	}
	setIntFromEnv("BILITRACK_CANDIDATE_COUNT", func(n int) { cfg.CookiePool.CandidateCount = n })
	setToggleFromEnv("BILITRACK_AUTO_DISABLE", func(b bool) { cfg.CookiePool.AutoDisable = &b })
	if v := getenv("BILITRACK_HEALTH_ENDPOINTS", ""); v != "" {
		cfg.CookiePool.HealthCheckEndpoints = splitAndTrim(v, ",")
	}
	if v := getenv("BILITRACK_CREATOR_IDS", ""); v != "" {
		ids := make([]int64, 0)
		for _, part := range splitAndTrim(v, ",") {
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.Task.CreatorIDs = ids
		}
	}
	if v := getenv("BILITRACK_DATA_DIR", ""); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := getenv("BILITRACK_STATE_PATH", ""); v != "" {
		cfg.Storage.StatePath = v
	}
	if v := getenv("BILITRACK_STATE_BACKEND", ""); v != "" {
		cfg.Storage.StateBackend = v
	}
	if v := getenv("BILITRACK_REDIS_ADDR", ""); v != "" {
		cfg.Storage.RedisAddr = v
	}
	if v := getenv("BILITRACK_WEBHOOK_URL", ""); v != "" {
		cfg.Notify.WebhookURL = v
	}
	if v := getenv("BILITRACK_MANAGEMENT_KEY", ""); v != "" {
		cfg.Monitor.ManagementKey = v
	}
	setToggleFromEnv("BILITRACK_DEBUG", func(b bool) { cfg.Debug = b })
}
