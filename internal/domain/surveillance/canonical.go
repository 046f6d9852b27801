package surveillance

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var separatorReplacer = strings.NewReplacer(" ", "-", "_", "-", "/", "-", ".", "-", ",", "-")

// CanonicalProgramID reduces a program identifier, however the upstream
// store spells it, to one canonical form: lowercase, no diacritics,
// dash-separated, "sve-" prefixed. "SVE Auditivo", "sve_auditivo" and
// "Auditivo" all become "sve-auditivo".
func CanonicalProgramID(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = stripMarks(s)
	s = separatorReplacer.Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "sve-") {
		s = "sve-" + s
	}
	return s
}

// programTokens returns the forms an identifier may be referenced by:
// the canonical id and the id without its prefix.
func programTokens(raw string) []string {
	canonical := CanonicalProgramID(raw)
	if canonical == "" {
		return nil
	}
	tokens := []string{canonical}
	if bare := strings.TrimPrefix(canonical, "sve-"); bare != canonical && bare != "" {
		tokens = append(tokens, bare)
	}
	return tokens
}

// codeVariants expands a diagnosis code into its equivalent spellings:
// as written, dotless, and the base chapter before the dot.
func codeVariants(code string) []string {
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

func stripMarks(s string) string {
	decomposed := norm.NFKD.String(s)
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
