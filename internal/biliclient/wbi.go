package biliclient

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"
)

// mixinKeyEncTab is the published reorder table used to derive the wbi mixin
// key from img_key + sub_key.
var mixinKeyEncTab = [64]int{
	46, 47, 18, 2, 53, 8, 23, 32, 15, 50, 10, 31, 58, 3, 45, 35,
	27, 43, 5, 49, 33, 9, 42, 19, 29, 28, 14, 39, 12, 38, 41, 13,
	37, 48, 7, 16, 24, 55, 40, 61, 26, 17, 0, 1, 60, 51, 30, 4,
	22, 25, 54, 21, 56, 59, 6, 63, 57, 62, 11, 36, 20, 34, 44, 52,
}

// unwantedChars are stripped from parameter values before signing.
const unwantedChars = "!'()*"

// mixinKey reorders the concatenated keys and keeps the first 32 bytes.
func mixinKey(imgKey, subKey string) string {
	orig := imgKey + subKey
	var b strings.Builder
	b.Grow(32)
	for _, idx := range mixinKeyEncTab {
		if idx < len(orig) {
			b.WriteByte(orig[idx])
		}
		if b.Len() >= 32 {
			break
		}
	}
	return b.String()
}

// keyFromURL extracts the wbi key from an image URL: the file name without
// its extension.
func keyFromURL(raw string) string {
	base := path.Base(raw)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

// signParams adds wts and w_rid to params per the wbi scheme: parameters are
// sorted by key, values stripped of "!'()*", url-encoded and md5-summed with
// the mixin key appended.
func signParams(params map[string]string, imgKey, subKey string, now time.Time) map[string]string {
	signed := make(map[string]string, len(params)+2)
	for k, v := range params {
		signed[k] = sanitizeValue(v)
	}
	signed["wts"] = fmt.Sprintf("%d", now.Unix())

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var query strings.Builder
	for i, k := range keys {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(url.QueryEscape(k))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(signed[k]))
	}

	sum := md5.Sum([]byte(query.String() + mixinKey(imgKey, subKey)))
	signed["w_rid"] = hex.EncodeToString(sum[:])
	return signed
}

func sanitizeValue(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if strings.ContainsRune(unwantedChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
