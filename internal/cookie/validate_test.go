package cookie

import (
	"fmt"
	"net/url"
	"testing"
	"time"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected bool
	}{
		{"full cookie", "SESSDATA=abc; bili_jct=def; DedeUserID=123", true},
		{"case insensitive", "sessdata=abc; BILI_JCT=def; dedeuserid=123", true},
		{"missing sessdata", "bili_jct=def; DedeUserID=123", false},
		{"missing bili_jct", "SESSDATA=abc; DedeUserID=123", false},
		{"missing dedeuserid", "SESSDATA=abc; bili_jct=def", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"no separators", "SESSDATA bili_jct DedeUserID", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateFormat(tt.raw); got != tt.expected {
				t.Errorf("ValidateFormat(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	got := Parse("SESSDATA=abc; bili_jct=def; broken; DedeUserID=123 ")
	if got["SESSDATA"] != "abc" || got["bili_jct"] != "def" || got["DedeUserID"] != "123" {
		t.Errorf("Parse returned %v", got)
	}
	if _, ok := got["broken"]; ok {
		t.Error("fragment without '=' should be skipped")
	}
}

func TestCheckExpiry_Expired(t *testing.T) {
	raw := "SESSDATA=abc,1000000000; bili_jct=x; DedeUserID=1"
	valid, reason, days := CheckExpiry(raw)
	if valid {
		t.Error("expected expired cookie to be invalid")
	}
	if reason != "expired" {
		t.Errorf("reason = %q, want %q", reason, "expired")
	}
	if days != 0 {
		t.Errorf("daysLeft = %d, want 0", days)
	}
}

func TestCheckExpiry_Valid(t *testing.T) {
	now := time.Now()
	expire := now.Add(40 * 24 * time.Hour).Unix()
	raw := fmt.Sprintf("SESSDATA=abc,%d,hex; bili_jct=x; DedeUserID=1", expire)

	valid, _, days := CheckExpiry(raw)
	if !valid {
		t.Fatal("expected future expiry to be valid")
	}
	if days < 39 || days > 40 {
		t.Errorf("daysLeft = %d, want ~40", days)
	}
}

func TestCheckExpiry_ExpiringSoon(t *testing.T) {
	expire := time.Now().Add(3 * 24 * time.Hour).Unix()
	raw := fmt.Sprintf("SESSDATA=abc,%d; bili_jct=x; DedeUserID=1", expire)

	valid, reason, days := CheckExpiry(raw)
	if !valid {
		t.Fatal("expected cookie with 3 days left to be valid")
	}
	if days != 3 {
		t.Errorf("daysLeft = %d, want 3", days)
	}
	if reason != "expiring soon (3 days)" {
		t.Errorf("reason = %q", reason)
	}
}

func TestCheckExpiry_URLEncoded(t *testing.T) {
	expire := time.Now().Add(60 * 24 * time.Hour).Unix()
	encoded := url.QueryEscape(fmt.Sprintf("abc,%d,deadbeef", expire))
	raw := fmt.Sprintf("SESSDATA=%s; bili_jct=x; DedeUserID=1", encoded)

	valid, _, days := CheckExpiry(raw)
	if !valid {
		t.Fatal("expected url-encoded expiry to parse")
	}
	if days < 59 || days > 60 {
		t.Errorf("daysLeft = %d, want ~60", days)
	}
}

func TestCheckExpiry_UnknownIsPermissive(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no sessdata", "bili_jct=x; DedeUserID=1"},
		{"no comma", "SESSDATA=abc; bili_jct=x; DedeUserID=1"},
		{"garbage timestamp", "SESSDATA=abc,notanumber; bili_jct=x; DedeUserID=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, reason, days := CheckExpiry(tt.raw)
			if !valid {
				t.Error("unparsable expiry should stay permissive")
			}
			if reason != "format valid, expiry unknown" {
				t.Errorf("reason = %q", reason)
			}
			if days != 365 {
				t.Errorf("daysLeft = %d, want 365", days)
			}
		})
	}
}

func TestCheckExpiry_Idempotent(t *testing.T) {
	raw := fmt.Sprintf("SESSDATA=abc,%d; bili_jct=x; DedeUserID=1",
		time.Now().Add(100*24*time.Hour).Unix())
	now := time.Now()

	v1, r1, d1 := checkExpiryAt(raw, now)
	v2, r2, d2 := checkExpiryAt(raw, now)
	if v1 != v2 || r1 != r2 || d1 != d2 {
		t.Errorf("repeated check diverged: (%v,%q,%d) vs (%v,%q,%d)", v1, r1, d1, v2, r2, d2)
	}
}
