package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStripper    = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	slugInvalidRuns = regexp.MustCompile(`[^a-z0-9]+`)
	slugHyphenRuns  = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a display name into a lowercase hyphenated slug
// Portuguese diacritics are stripped ("Cerâmica Marajoara" -> "ceramica-marajoara")
func Slugify(name string) string {
	stripped, _, err := transform.String(slugStripper, name)
	if err != nil {
		stripped = name
	}

	slug := strings.ToLower(stripped)
	slug = slugInvalidRuns.ReplaceAllString(slug, "-")
	slug = slugHyphenRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	return slug
}
