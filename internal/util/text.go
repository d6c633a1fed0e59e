package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeHeader lowercases and collapses a spreadsheet header so synonym
// matching works on exact strings.
func NormalizeHeader(input string) string {
	s := strings.ToLower(input)
	s = strings.ReplaceAll(s, " ", " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fold strips the Spanish accents that suppliers use inconsistently, so
// "categoría" and "categoria" land on the same synonym.
func Fold(input string) string {
	repl := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	)
	return repl.Replace(input)
}

func StringPtr(v string) *string { return &v }
