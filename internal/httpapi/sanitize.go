package httpapi

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var reUnsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// secureFilename reduces a client-supplied name to a safe ASCII base name:
// compatibility-decomposed, non-ASCII dropped, path separators and whitespace
// collapsed to "_", anything outside [A-Za-z0-9_.-] removed, and leading or
// trailing dots and underscores trimmed. The result may be empty.
func secureFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > 0x7f {
			return -1
		}
		return r
	}, name)

	name = strings.NewReplacer("/", " ", `\`, " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = reUnsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// extension returns the lowercased extension without its dot.
func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
