package internal

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

// Lower returns the NFC, lower-cased form of text. This is the form corpus
// examples are embedded in. A cases.Caser is stateful, so one is built per call.
func Lower(text string) string {
	return cases.Lower(language.French).String(norm.NFC.String(text))
}

// Normalize lower-cases and trims a reply before it is embedded.
func Normalize(text string) string {
	return strings.TrimSpace(Lower(text))
}

// foldApostrophes maps typographic apostrophes onto ASCII so that stems such
// as "m'en vais" match replies typed on phones.
func foldApostrophes(text string) string {
	return apostrophes.Replace(text)
}
