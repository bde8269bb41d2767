package knowledge

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Normalize folds case, trims, and collapses inner whitespace. Symptoms and
// lookup keys are compared in this form.
func Normalize(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// Tokenize folds case and splits s on anything that is not a letter or a
// digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(cases.Fold().String(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// NormalizeText returns the tokens of s joined by single spaces, so that
// "High-blood  pressure?" becomes "high blood pressure".
func NormalizeText(s string) string {
	return strings.Join(Tokenize(s), " ")
}
