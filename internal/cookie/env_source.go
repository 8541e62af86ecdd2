package cookie

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	envPrimaryCookie = "BILIBILI_COOKIES"
	envNumberedMax   = 10
)

// EnvSource loads cookies from the BILIBILI_COOKIES environment variables.
// BILIBILI_COOKIES becomes the "main" entry at priority 1; the numbered
// BILIBILI_COOKIES_1 through BILIBILI_COOKIES_10 follow at priority N+1.
// The source is active only in CI, where secrets are the only credential
// channel; outside CI it yields nothing so a stray local BILIBILI_COOKIES
// cannot shadow config entries.
type EnvSource struct{}

// NewEnvSource creates a new environment variable cookie source.
func NewEnvSource() *EnvSource { return &EnvSource{} }

func (s *EnvSource) Name() string { return "env" }

func (s *EnvSource) Load(_ context.Context) ([]*Info, error) {
	if !RunningInCI() {
		if hasEnvCookies() {
			log.Debug("ignoring BILIBILI_COOKIES variables outside CI")
		}
		return nil, nil
	}

	out := make([]*Info, 0, envNumberedMax+1)

	if raw := strings.TrimSpace(os.Getenv(envPrimaryCookie)); raw != "" {
		info := NewInfo("main", raw, 1)
		info.Source = s.Name()
		out = append(out, info)
	}

	for i := 1; i <= envNumberedMax; i++ {
		key := fmt.Sprintf("%s_%d", envPrimaryCookie, i)
		raw := strings.TrimSpace(os.Getenv(key))
		if raw == "" {
			continue
		}
		info := NewInfo(fmt.Sprintf("env_cookie_%d", i), raw, i+1)
		info.Source = s.Name()
		out = append(out, info)
	}

	if len(out) > 0 {
		log.Infof("Loaded %d cookie(s) from environment variables", len(out))
	}
	return out, nil
}

// hasEnvCookies reports whether any BILIBILI_COOKIES variable is set.
func hasEnvCookies() bool {
	if os.Getenv(envPrimaryCookie) != "" {
		return true
	}
	for i := 1; i <= envNumberedMax; i++ {
		if os.Getenv(fmt.Sprintf("%s_%d", envPrimaryCookie, i)) != "" {
			return true
		}
	}
	return false
}
