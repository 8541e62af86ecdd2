package biliclient

import (
	"testing"
	"time"
)

func TestMixinKey(t *testing.T) {
	imgKey := "abcdefghijklmnopqrstuvwxyzABCDEF"
	subKey := "GHIJKLMNOPQRSTUVWXYZ0123456789+/"
	got := mixinKey(imgKey, subKey)
	want := "UVsc1ixGpYkF6dTJBRfXHjQtDCoNmMPn"
	if got != want {
		t.Errorf("mixinKey = %q, want %q", got, want)
	}
	if len(got) != 32 {
		t.Errorf("mixin key length = %d, want 32", len(got))
	}
}

func TestMixinKey_ShortInput(t *testing.T) {
	// Indices beyond the input length are skipped; the table visits
	// index 2 before 0 and 1.
	if got := mixinKey("abc", ""); got != "cab" {
		t.Errorf("mixinKey short = %q, want %q", got, "cab")
	}
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png", "7cd084941338484aae1ad9425b84077c"},
		{"https://i0.hdslb.com/bfs/wbi/noext", "noext"},
		{"4932caff0ff746eab6f01bf08b70ac45.png", "4932caff0ff746eab6f01bf08b70ac45"},
	}
	for _, tt := range tests {
		if got := keyFromURL(tt.raw); got != tt.want {
			t.Errorf("keyFromURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSignParams(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signed := signParams(map[string]string{
		"mid": "114514",
		"opt": "a!b",
	}, "abc", "", now)

	if signed["wts"] != "1700000000" {
		t.Errorf("wts = %q", signed["wts"])
	}
	if signed["opt"] != "ab" {
		t.Errorf("opt = %q, want sanitized %q", signed["opt"], "ab")
	}
	// md5 of "mid=114514&opt=ab&wts=1700000000" + mixinKey("abc", "").
	if signed["w_rid"] != "b458ee56834216209fd84af3045bda49" {
		t.Errorf("w_rid = %q", signed["w_rid"])
	}
}

func TestSignParams_Deterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	params := map[string]string{"a": "1", "b": "2", "c": "3"}
	first := signParams(params, "img", "sub", now)
	second := signParams(params, "img", "sub", now)
	if first["w_rid"] != second["w_rid"] {
		t.Errorf("w_rid unstable: %q vs %q", first["w_rid"], second["w_rid"])
	}
	if len(first["w_rid"]) != 32 {
		t.Errorf("w_rid length = %d, want 32", len(first["w_rid"]))
	}
	if _, ok := params["wts"]; ok {
		t.Error("signParams mutated its input map")
	}
}
