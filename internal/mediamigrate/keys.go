// Package mediamigrate repairs media URLs whose object keys were stored
// percent-encoded, moving objects to their decoded key and rewriting the
// database URL to a single canonical encoding.
package mediamigrate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var encodedSeq = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)

// rawPath returns the path of raw exactly as written, without scheme,
// host, query or fragment.
func rawPath(raw string) string {
	s := raw
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "://"); i >= 0 {
		rest := s[i+3:]
		j := strings.IndexByte(rest, '/')
		if j < 0 {
			return ""
		}
		return rest[j:]
	}
	return s
}

// HasEncodedPath reports whether the path of rawURL contains a literal
// %XX escape.
func HasEncodedPath(rawURL string) bool {
	return encodedSeq.MatchString(rawPath(rawURL))
}

// LegacyKey returns the object key rawURL points at, as stored. URLs under
// publicBase are resolved relative to it.
func LegacyKey(publicBase, rawURL string) (string, error) {
	base := strings.TrimRight(publicBase, "/")
	var p string
	if base != "" && strings.HasPrefix(rawURL, base+"/") {
		p = rawPath(rawURL[len(base):])
	} else {
		p = rawPath(rawURL)
	}
	key := strings.TrimLeft(p, "/")
	if key == "" {
		return "", fmt.Errorf("no object key in %q", rawURL)
	}
	return key, nil
}

// DecodeKey percent-decodes key.
func DecodeKey(key string) (string, error) {
	k, err := url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("decode key %q: %w", key, err)
	}
	return k, nil
}

// EncodeKey applies encodeURIComponent to each path segment of key,
// matching what a browser requests for the key.
func EncodeKey(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = encodeURIComponent(s)
	}
	return strings.Join(segs, "/")
}

// CanonicalURL is the public URL of a decoded key.
func CanonicalURL(publicBase, key string) string {
	return strings.TrimRight(publicBase, "/") + "/" + EncodeKey(key)
}

const upperhex = "0123456789ABCDEF"

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}
