package cookie

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// requiredFields are the cookie names a usable bilibili session must carry.
var requiredFields = []string{"SESSDATA", "bili_jct", "DedeUserID"}

// ValidateFormat performs a structural check on a raw cookie string.
// A valid value contains at least one '=' or ';' and every required field
// name, compared case-insensitively.
func ValidateFormat(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if !strings.Contains(raw, "=") && !strings.Contains(raw, ";") {
		return false
	}
	lower := strings.ToLower(raw)
	for _, field := range requiredFields {
		if !strings.Contains(lower, strings.ToLower(field)) {
			return false
		}
	}
	return true
}

// Parse splits a raw Cookie header string into a name -> value map.
// Malformed fragments without '=' are skipped.
func Parse(raw string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, "=")
		if idx <= 0 {
			continue
		}
		out[strings.TrimSpace(part[:idx])] = strings.TrimSpace(part[idx+1:])
	}
	return out
}

// CheckExpiry inspects the SESSDATA component for an embedded expiry
// timestamp. bilibili encodes SESSDATA as comma-separated fields where the
// second one is a Unix expiry time.
//
// A cookie without a parsable timestamp is treated as valid with a nominal
// 365 days remaining; only the session heartbeat can tell for sure, so the
// check stays permissive rather than discarding entries it cannot read.
func CheckExpiry(raw string) (valid bool, reason string, daysLeft int) {
	return checkExpiryAt(raw, time.Now())
}

func checkExpiryAt(raw string, now time.Time) (bool, string, int) {
	sessdata := ""
	for name, value := range Parse(raw) {
		if strings.EqualFold(name, "SESSDATA") {
			sessdata = value
			break
		}
	}
	if sessdata == "" {
		return true, "format valid, expiry unknown", 365
	}

	if decoded, err := url.QueryUnescape(sessdata); err == nil {
		sessdata = decoded
	}
	parts := strings.Split(sessdata, ",")
	if len(parts) < 2 {
		return true, "format valid, expiry unknown", 365
	}
	expire, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return true, "format valid, expiry unknown", 365
	}

	if expire <= now.Unix() {
		return false, "expired", 0
	}
	days := int((expire - now.Unix()) / 86400)
	if days < 7 {
		return true, fmt.Sprintf("expiring soon (%d days)", days), days
	}
	return true, fmt.Sprintf("valid (%d days)", days), days
}
