package record

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText lowercases, strips diacritics and collapses whitespace.
// All dedup keys over free text go through here so "Protección Auditiva"
// and "proteccion  auditiva" collide.
func NormalizeText(s string) string {
	s = stripDiacritics(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CodeVariants expands a diagnosis code into its equivalent spellings:
// the code itself, the dotless form, and the base chapter before the dot.
// "H52.1" matches "H521" and "H52".
func CodeVariants(code string) []string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	seen := map[string]bool{code: true}
	variants := []string{code}
	if dotless := strings.ReplaceAll(code, ".", ""); !seen[dotless] {
		seen[dotless] = true
		variants = append(variants, dotless)
	}
	if base, _, found := strings.Cut(code, "."); found && !seen[base] {
		variants = append(variants, base)
	}
	return variants
}
