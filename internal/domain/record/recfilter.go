package record

import (
	"regexp"
	"strings"
)

// Clinical-context indicators. A recommendation carrying any of these is
// anchored to something concrete and is always kept.
var (
	measurementRe = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(mg|mcg|g|kg|lb|db|hz|mmhg|msnm|cm|mm|ml|%|ui|hours?|horas?|days?|dias?|weeks?|semanas?|months?|meses|min(utes)?)\b`)
	comparisonRe  = regexp.MustCompile(`(?i)([<>]=?|≥|≤)\s*\d+|\b(more|less|greater|lower|over|under)\s+than\s+\d+|\b(mayor|menor)\s+(a|de|que)\s+\d+`)
	causalRe      = regexp.MustCompile(`(?i)\b(due\s+to|because\s+of|secondary\s+to|related\s+to\s+(the\s+)?diagnosis|given\s+the\s+diagnosis|debido\s+a|por\s+(diagnostico|antecedente|exposicion)\s+de|por\s+exposicion)\b`)
	diagCodeRe    = regexp.MustCompile(`\b[A-Z]\d{2}(\.\d{1,2})?\b`)
	frequencyRe   = regexp.MustCompile(`(?i)\bevery\s+\d+\s*(months?|weeks?|days?|meses|semanas|dias)\b|\bcada\s+\d+\s*(meses|semanas|dias)\b`)
)

func hasClinicalAnchor(desc string) bool {
	if measurementRe.MatchString(desc) || comparisonRe.MatchString(desc) ||
		causalRe.MatchString(desc) || diagCodeRe.MatchString(desc) {
		return true
	}
	return frequencyRe.MatchString(desc) && causalRe.MatchString(desc)
}

// Bare exam names. "Audiometry" alone is an order, not a recommendation.
var standaloneExamNames = map[string]bool{
	"audiometry":        true,
	"audiometria":       true,
	"spirometry":        true,
	"espirometria":      true,
	"optometry":         true,
	"optometria":        true,
	"visiometry":        true,
	"visiometria":       true,
	"ecg":               true,
	"electrocardiogram": true,
	"chest x ray":       true,
	"chest x-ray":       true,
	"blood test":        true,
	"lab tests":         true,
}

// genericRule is one drop rule of the boilerplate library: the pattern, a
// category for review, and the rationale the rule encodes.
type genericRule struct {
	pattern   *regexp.Regexp
	category  string
	rationale string
}

var genericRecommendationRules = []genericRule{
	{
		regexp.MustCompile(`(?i)\buse\s+of\s+(ppe|personal\s+protective\s+equipment|hearing\s+protection|protective\s+equipment)\b|\buso\s+de\s+(epp|elementos\s+de\s+proteccion)`),
		"ppe",
		"unspecific protective-equipment instruction",
	},
	{
		regexp.MustCompile(`(?i)\b(health\s+education|training\s+on|self[-\s]?care|educacion\s+en\s+salud|autocuidado|capacitacion\s+en)\b`),
		"education",
		"generic education or training phrase",
	},
	{
		regexp.MustCompile(`(?i)\bhealthy\s+(lifestyle\s+)?habits\b|\bbalanced\s+diet\b|\bhabitos\s+(de\s+vida\s+)?saludables?\b|\balimentacion\s+(saludable|balanceada)\b`),
		"habits",
		"generic healthy-habits phrasing",
	},
	{
		regexp.MustCompile(`(?i)\bfollow\s+(the\s+)?(company\s+|medical\s+)?(guidelines|recommendations)\b|\bcontinue\s+(current\s+)?management\b|\bseguir\s+recomendaciones\b|\bcontinuar\s+manejo\b`),
		"administrative",
		"generic follow-guidelines phrasing",
	},
	{
		regexp.MustCompile(`(?i)\b(postural|ergonomic)\s+hygiene\b|\bergonomic\s+measures\b|\bactive\s+breaks\b|\bpausas\s+activas\b|\bhigiene\s+postural\b|\b(adequate\s+)?hydration\b|\bhidratacion\b|\bregular\s+(physical\s+)?exercise\b|\bactividad\s+fisica\s+regular\b`),
		"lifestyle",
		"unparameterized ergonomic/lifestyle phrasing",
	},
}

// FilterRecommendations drops templated boilerplate while keeping anything
// clinically anchored, then collapses duplicates by normalized description.
func FilterRecommendations(recs []Recommendation) []Recommendation {
	seen := map[string]bool{}
	kept := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if !keepRecommendation(r.Description) {
			continue
		}
		key := NormalizeText(r.Description)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	return kept
}

func keepRecommendation(desc string) bool {
	if strings.TrimSpace(desc) == "" {
		return false
	}
	if hasClinicalAnchor(desc) {
		return true
	}
	norm := NormalizeText(desc)
	if len(strings.Fields(norm)) <= 3 && standaloneExamNames[norm] {
		return false
	}
	for _, rule := range genericRecommendationRules {
		if rule.pattern.MatchString(norm) {
			return false
		}
	}
	return true
}
