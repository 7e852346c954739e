package epub

import (
	"strings"
)

// ResolveHref resolves a raw href against a base directory into a canonical
// archive-internal path: percent-escapes decoded, forward slashes only, no
// empty, "." or ".." segments. A ".." segment discards the preceding segment
// (or is dropped at the root). Resolution is idempotent, so normalized paths
// can be used directly as map keys.
func ResolveHref(baseDir, ref string) string {
	ref = strings.TrimSpace(ref)
	ref = percentDecode(ref)
	ref = strings.ReplaceAll(ref, "\\", "/")

	var segs []string
	if baseDir != "" && !strings.HasPrefix(ref, "/") {
		segs = strings.Split(baseDir, "/")
	}
	for _, part := range strings.Split(ref, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, part)
		}
	}
	return strings.Join(segs, "/")
}

// BaseDir returns the directory portion of a normalized archive path with no
// trailing slash ("" for the archive root).
func BaseDir(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}

// SplitFragment splits a source reference into its path and fragment
// identifier (without the '#').
func SplitFragment(src string) (path, fragment string) {
	path, fragment, _ = strings.Cut(src, "#")
	return path, fragment
}

// percentDecode decodes %XX escapes. Source EPUBs vary in strictness, so
// malformed escapes pass through unchanged instead of failing the lookup.
func percentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
