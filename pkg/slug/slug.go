// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Placeholder is used when a name contains no usable characters at all.
const Placeholder = "categoria"

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts a free-text name into a lowercase ASCII hyphenated slug.
// Diacritics are stripped, runs of non-alphanumerics collapse into a single
// hyphen, and leading/trailing hyphens are trimmed. An input with no usable
// characters yields Placeholder so callers always get a non-empty slug.
func Make(name string) string {
	flattened, _, err := transform.String(deaccent, name)
	if err != nil {
		flattened = name
	}

	var b strings.Builder
	b.Grow(len(flattened))
	lastHyphen := true
	for _, r := range strings.ToLower(flattened) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}

	result := strings.Trim(b.String(), "-")
	if result == "" {
		return Placeholder
	}
	return result
}

// Unique returns candidate if it is absent from taken, otherwise the first
// numeric-suffixed variant (candidate-1, candidate-2, ...) that is.
func Unique(candidate string, taken map[string]struct{}) string {
	if candidate == "" {
		candidate = Placeholder
	}
	if _, exists := taken[candidate]; !exists {
		return candidate
	}
	for i := 1; ; i++ {
		next := fmt.Sprintf("%s-%d", candidate, i)
		if _, exists := taken[next]; !exists {
			return next
		}
	}
}

// TakenSet builds the lookup set Unique expects from a slice of slugs.
func TakenSet(slugs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	return set
}
