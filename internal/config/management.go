package config

import "golang.org/x/crypto/bcrypt"

// CheckManagementKey verifies whether the provided key matches the configured
// monitor credential. A bcrypt hash takes precedence over the plain key.
func CheckManagementKey(cfg *Config, candidate string) bool {
	if cfg == nil || candidate == "" {
		return false
	}
	if cfg.Monitor.ManagementKeyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(cfg.Monitor.ManagementKeyHash), []byte(candidate)) == nil
	}
	if cfg.Monitor.ManagementKey != "" && candidate == cfg.Monitor.ManagementKey {
		return true
	}
	return false
}
