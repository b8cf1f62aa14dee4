package engine

import (
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// NormQuery returns the cache/history key form of a search query:
// lowercased with runs of whitespace collapsed.
func NormQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
