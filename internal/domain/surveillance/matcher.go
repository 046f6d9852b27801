package surveillance

import (
	"sort"
	"strings"
)

// Matcher matches diagnosis codes against a program catalog. It is built
// once from the catalog and is safe for concurrent readers.
type Matcher struct {
	byID   map[string]CatalogEntry // canonical id -> entry
	byCode map[string]string       // code variant -> canonical id
}

// NewMatcher indexes the catalog by identifier token and by every variant
// of every covered diagnosis code.
func NewMatcher(catalog []CatalogEntry) *Matcher {
	m := &Matcher{
		byID:   make(map[string]CatalogEntry, len(catalog)),
		byCode: make(map[string]string),
	}
	for _, entry := range catalog {
		canonical := CanonicalProgramID(entry.ID)
		if canonical == "" {
			continue
		}
		entry.ID = canonical
		m.byID[canonical] = entry
		for _, d := range entry.Diagnoses {
			for _, variant := range codeVariants(d.Code) {
				if _, taken := m.byCode[variant]; !taken {
					m.byCode[variant] = canonical
				}
			}
		}
	}
	return m
}

// match resolves one diagnosis code to a program, trying the code's own
// variants so "H90.3", "H903" and "H90" land on the same entry.
func (m *Matcher) match(code string) (CatalogEntry, bool) {
	for _, variant := range codeVariants(code) {
		if id, ok := m.byCode[variant]; ok {
			return m.byID[id], true
		}
	}
	// dotless subcategory form ("H903") still resolves to its base chapter
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) > 3 && !strings.Contains(c, ".") {
		if id, ok := m.byCode[c[:3]]; ok {
			return m.byID[id], true
		}
	}
	return CatalogEntry{}, false
}

// Evaluate maps the consolidated diagnosis codes against the employer's
// enrollment. Diagnoses covered by an enrolled program become program
// alerts; diagnoses covered by a non-enrolled catalog program become
// referral candidates grouped by suggested specialist. Codes matching no
// program at all are ignored.
func (m *Matcher) Evaluate(diagnosisCodes, enrolledPrograms []string) Evaluation {
	enrolled := map[string]bool{}
	for _, p := range enrolledPrograms {
		for _, token := range programTokens(p) {
			enrolled[token] = true
		}
	}

	alertsByProgram := map[string]*ProgramAlert{}
	referralsBySpecialist := map[string]*ReferralCandidate{}
	var alertOrder, referralOrder []string

	for _, code := range diagnosisCodes {
		entry, ok := m.match(code)
		if !ok {
			continue
		}
		if enrolled[entry.ID] || enrolled[CanonicalProgramID(entry.ID)] {
			a, ok := alertsByProgram[entry.ID]
			if !ok {
				a = &ProgramAlert{
					ProgramID:   entry.ID,
					ProgramName: entry.Name,
					Description: entry.Description,
				}
				alertsByProgram[entry.ID] = a
				alertOrder = append(alertOrder, entry.ID)
			}
			a.MatchedDiagnoses = appendUnique(a.MatchedDiagnoses, code)
			continue
		}
		specialist := entry.Specialist
		if specialist == "" {
			specialist = DefaultSpecialist
		}
		rc, ok := referralsBySpecialist[specialist]
		if !ok {
			rc = &ReferralCandidate{Specialist: specialist}
			referralsBySpecialist[specialist] = rc
			referralOrder = append(referralOrder, specialist)
		}
		rc.Programs = appendUnique(rc.Programs, entry.ID)
		rc.MatchedDiagnoses = appendUnique(rc.MatchedDiagnoses, code)
	}

	var out Evaluation
	sort.Strings(alertOrder)
	for _, id := range alertOrder {
		out.ProgramAlerts = append(out.ProgramAlerts, *alertsByProgram[id])
	}
	sort.Strings(referralOrder)
	for _, sp := range referralOrder {
		out.ReferralCandidates = append(out.ReferralCandidates, *referralsBySpecialist[sp])
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
