package fsutil

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

// CleanBasename reduces a user-supplied filename to a bare basename.
// Directory components, traversal sequences, and control characters are
// rejected by returning "". The name is never rewritten, only validated,
// so it can be compared byte-for-byte against directory listings.
func CleanBasename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	if strings.Contains(name, "..") {
		return ""
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return ""
		}
	}
	return name
}

// Slugify converts a title to a lowercase, hyphen-separated, filesystem and
// URL safe identifier. Non-alphanumeric runs collapse to a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SafeFileName sanitizes a name for use in a Content-Disposition header.
func SafeFileName(name string) string {
	name = CleanBasename(name)
	return strings.Map(func(r rune) rune {
		if r == '"' || r == '\n' || r == '\r' || r == ';' {
			return '_'
		}
		return r
	}, name)
}

// UniquePath returns a path in dir for base that does not collide with an
// existing file, numbering candidates name-1.ext, name-2.ext, … until free.
// exists reports whether a candidate path is already taken.
func UniquePath(dir, base string, exists func(string) bool) (string, string) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := base
	target := filepath.Join(dir, candidate)
	for suffix := 1; exists(target); suffix++ {
		candidate = fmt.Sprintf("%s-%d%s", stem, suffix, ext)
		target = filepath.Join(dir, candidate)
	}
	return target, candidate
}
