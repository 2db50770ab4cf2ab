package ingest

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	docCleanRe   = regexp.MustCompile(`[^0-9A-Za-z]`)
)

// CleanName trims and collapses whitespace for display storage.
func CleanName(name string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
}

// NormalizeName builds the match key for a name: lower-cased, diacritics
// stripped, punctuation removed, whitespace collapsed. The display form
// is stored separately.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	stripped = strings.ToLower(stripped)
	stripped = punctRe.ReplaceAllString(stripped, " ")
	return CleanName(stripped)
}

// NormalizeDocument strips separators from a document number so exact
// comparison ignores formatting (e.g. "1.234.567-8" vs "12345678").
func NormalizeDocument(doc string) string {
	return strings.ToUpper(docCleanRe.ReplaceAllString(doc, ""))
}

// DedupeAliases drops exact duplicates (after normalization) while
// preserving first-seen order of the display forms.
func DedupeAliases(aliases []string) (display, match []string) {
	seen := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		cleaned := CleanName(a)
		if cleaned == "" {
			continue
		}
		key := NormalizeName(cleaned)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		display = append(display, cleaned)
		match = append(match, key)
	}
	return display, match
}
