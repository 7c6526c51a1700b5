package slug

import (
	"regexp"
	"strings"

	gosimpleslug "github.com/gosimple/slug"
)

var (
	validPattern     = regexp.MustCompile(`^[a-z0-9-]+$`)
	separatorPattern = regexp.MustCompile(`[-_]+`)
)

// Generate turns a display name into a slug that Valid accepts.
// Non-ASCII letters are transliterated; anything else becomes a hyphen.
//
// Examples:
//   - "Atlas Plast" → "atlas-plast"
//   - "Müller & Söhne" → "muller-and-sohne"
func Generate(name string) string {
	// gosimple keeps underscores; the brand slug alphabet does not.
	s := separatorPattern.ReplaceAllString(gosimpleslug.Make(name), "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s contains only lowercase letters, digits, and hyphens.
func Valid(s string) bool {
	return validPattern.MatchString(s)
}
