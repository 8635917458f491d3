package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxTitleLength = 200

// titleReplacer strips characters that are unsafe in artifact folder and
// file names. Separators become dashes so word boundaries survive; the rest
// is dropped outright.
var titleReplacer = strings.NewReplacer(
	"/", "-",
	`\`, "-",
	":", "-",
	"*", "-",
	"?", "",
	`"`, "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a string safe to embed in a file or folder name.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(titleReplacer.Replace(strings.TrimSpace(name)))
}

// NormalizeTitle cleans a source-provided title for display and storage.
// Control characters are dropped, whitespace runs collapse to single spaces,
// filename-unsafe characters are stripped, and overly long titles are
// truncated at a rune boundary.
func NormalizeTitle(title, fallback string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range title {
		switch {
		case unicode.IsControl(r):
			// skip
		case unicode.IsSpace(r):
			if !prevSpace && cleaned.Len() > 0 {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		default:
			cleaned.WriteRune(r)
			prevSpace = false
		}
	}
	result := SanitizeFileName(cleaned.String())
	if result == "" {
		return DeriveTitle(fallback)
	}
	if utf8.RuneCountInString(result) > maxTitleLength {
		runes := []rune(result)
		result = strings.TrimSpace(string(runes[:maxTitleLength]))
	}
	return result
}

// DeriveTitle builds a presentable title from an opaque reference such as a
// URL, for sources that report no title of their own.
func DeriveTitle(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "Untitled Source"
	}
	if idx := strings.LastIndexAny(ref, "/="); idx >= 0 && idx+1 < len(ref) {
		ref = ref[idx+1:]
	}
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range ref {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Source"
	}
	return cases.Title(language.Und).String(title)
}
