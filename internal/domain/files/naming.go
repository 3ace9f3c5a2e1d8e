package files

import (
	"math/rand/v2"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	nameSeparator = "-"

	// randomSuffixMax bounds the random part of a stored name (inclusive).
	randomSuffixMax = 1_000_000_000

	// timeLayout is ISO-8601 in UTC with millisecond precision.
	timeLayout = "2006-01-02T15:04:05.000Z"
)

// Sanitize replaces every rune outside [A-Za-z0-9.-] with '_'.
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return '_'
	}, name)
}

// StoredName builds "<unixMillis>-<suffix>-<sanitized original>".
func StoredName(original string, at time.Time, suffix int64) string {
	return strconv.FormatInt(at.UnixMilli(), 10) + nameSeparator +
		strconv.FormatInt(suffix, 10) + nameSeparator +
		Sanitize(original)
}

// OriginalName recovers the display name from a stored name by dropping the
// first two '-' separated segments. Names that do not follow the scheme are
// returned unchanged.
func OriginalName(stored string) string {
	parts := strings.Split(stored, nameSeparator)
	if len(parts) > 2 {
		if name := strings.Join(parts[2:], nameSeparator); name != "" {
			return name
		}
	}
	return stored
}

// FormatTime renders t the way every API timestamp is rendered.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func randomSuffix() int64 {
	return rand.Int64N(randomSuffixMax + 1)
}

// validName reports whether name can only refer to an entry directly inside
// the storage directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return filepath.Base(name) == name
}
