package record

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Merge folds a person's ranked source records into one consolidated record.
// Inputs are never mutated. Alerts are left empty; the validator owns them.
func Merge(personRef string, sources []SourceRecord, now time.Time) *ConsolidatedRecord {
	part := Classify(sources)
	highByRecency := ByRecency(part.HighPriority)
	allByRecency := ByRecency(sources)

	out := &ConsolidatedRecord{
		ID:             uuid.New(),
		PersonRef:      personRef,
		SourceType:     SourceConsolidated,
		ConsolidatedAt: now,
		SourceCount:    len(sources),
	}

	out.EmployeeData = mergeEmployeeData(part)
	out.VitalSigns = selectVitalSigns(highByRecency, ByRecency(part.LowPriority))
	out.EvaluationType, out.EvaluationDate = selectEvaluation(part.HighPriority)
	out.PhysicalExamFindings = selectPhysicalExam(part.HighPriority)
	out.Diagnoses = mergeDiagnoses(sources)
	out.Antecedents = mergeAntecedents(sources)
	out.Exams = mergeExams(sources)
	out.Incapacities = mergeIncapacities(sources)
	out.Recommendations = FilterRecommendations(mergeRecommendations(sources))
	out.Referrals = mergeReferrals(sources)
	out.SurveillancePrograms = mergePrograms(sources)

	fitness := selectFitnessSource(highByRecency, allByRecency)
	if fitness != nil {
		out.WorkFitness = fitness.WorkFitness
		out.RestrictionsText = SanitizeRestrictions(fitness.RestrictionsText)
		out.ReturnToWork = fitness.ReturnToWork
		out.ReturnToWorkCause = fitness.ReturnToWorkCause
	}

	for _, s := range sources {
		if s.SourceFile != "" {
			out.SourceFiles = append(out.SourceFiles, s.SourceFile)
		}
	}

	out.Confidence = meanDiagnosisConfidence(out.Diagnoses)
	return out
}

// ── Employee data ──

// Generic labels extraction emits when the document never names the person.
// They neither overwrite a specific value nor fill an empty slot.
var placeholderValues = map[string]bool{
	"employee":   true,
	"worker":     true,
	"staff":      true,
	"empleado":   true,
	"trabajador": true,
	"personal":   true,
	"unknown":    true,
	"n/a":        true,
	"na":         true,
	"-":          true,
}

func isPlaceholder(v string) bool {
	return placeholderValues[NormalizeText(v)]
}

// mergeEmployeeData lets low-priority records populate first, then
// high-priority records overwrite key by key.
func mergeEmployeeData(p Partition) EmployeeData {
	var out EmployeeData
	for _, s := range p.LowPriority {
		applyEmployeeData(&out, s.EmployeeData)
	}
	for _, s := range p.HighPriority {
		applyEmployeeData(&out, s.EmployeeData)
	}
	return out
}

func applyEmployeeData(dst *EmployeeData, src EmployeeData) {
	setStr := func(dst *string, v string) {
		if v != "" && !isPlaceholder(v) {
			*dst = v
		}
	}
	setStr(&dst.FullName, src.FullName)
	setStr(&dst.Document, src.Document)
	setStr(&dst.DocumentType, src.DocumentType)
	setStr(&dst.BirthDate, src.BirthDate)
	setStr(&dst.Sex, src.Sex)
	setStr(&dst.Position, src.Position)
	setStr(&dst.Department, src.Department)
	setStr(&dst.Employer, src.Employer)
	setStr(&dst.HealthProvider, src.HealthProvider)
	setStr(&dst.RiskInsurer, src.RiskInsurer)
	if src.Age != nil {
		age := *src.Age
		dst.Age = &age
	}
	if src.TenureMonths != nil {
		t := *src.TenureMonths
		dst.TenureMonths = &t
	}
}

// ── Single-source selections ──

// selectVitalSigns takes the most recent high-priority record carrying any
// vital sign, falling back to low-priority records. The block is copied so
// later normalization never touches the source record.
func selectVitalSigns(highByRecency, lowByRecency []SourceRecord) *VitalSigns {
	for _, recs := range [][]SourceRecord{highByRecency, lowByRecency} {
		for i := len(recs) - 1; i >= 0; i-- {
			if !recs[i].VitalSigns.IsZero() {
				return copyVitalSigns(recs[i].VitalSigns)
			}
		}
	}
	return nil
}

func copyVitalSigns(v *VitalSigns) *VitalSigns {
	out := &VitalSigns{}
	cpS := func(p *string) *string {
		if p == nil {
			return nil
		}
		s := *p
		return &s
	}
	cpF := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		f := *p
		return &f
	}
	out.BloodPressure = cpS(v.BloodPressure)
	out.HeartRate = cpF(v.HeartRate)
	out.RespiratoryRate = cpF(v.RespiratoryRate)
	out.Temperature = cpF(v.Temperature)
	out.OxygenSaturation = cpF(v.OxygenSaturation)
	out.WeightKg = cpF(v.WeightKg)
	out.HeightCm = cpF(v.HeightCm)
	out.BMI = cpF(v.BMI)
	if out.BMI == nil {
		out.BMI = computeBMI(out.WeightKg, out.HeightCm)
	}
	return out
}

func computeBMI(weightKg, heightCm *float64) *float64 {
	if weightKg == nil || heightCm == nil || *heightCm <= 0 {
		return nil
	}
	m := *heightCm / 100
	bmi := math.Round(*weightKg/(m*m)*10) / 10
	return &bmi
}

// selectEvaluation takes evaluation type and date from the first
// high-priority record carrying each; specific exams never contribute.
func selectEvaluation(high []SourceRecord) (evalType, evalDate string) {
	for _, s := range high {
		if evalType == "" && s.EvaluationType != "" {
			evalType = s.EvaluationType
		}
		if evalDate == "" && s.EvaluationDate != "" {
			evalDate = s.EvaluationDate
		}
		if evalType != "" && evalDate != "" {
			break
		}
	}
	return evalType, evalDate
}

func selectPhysicalExam(high []SourceRecord) string {
	for _, s := range high {
		if s.PhysicalExamFindings != "" {
			return s.PhysicalExamFindings
		}
	}
	return ""
}

// selectFitnessSource picks the record the fitness verdict, restrictions and
// return-to-work flags are copied from: the most recent high-priority record
// with a verdict, else the most recent record of any priority with one.
func selectFitnessSource(highByRecency, allByRecency []SourceRecord) *SourceRecord {
	for _, recs := range [][]SourceRecord{highByRecency, allByRecency} {
		for i := len(recs) - 1; i >= 0; i-- {
			if recs[i].WorkFitness != "" {
				r := recs[i]
				return &r
			}
		}
	}
	return nil
}

// ── Keyed unions ──

func mergeDiagnoses(sources []SourceRecord) []Diagnosis {
	byCode := map[string]int{}
	var out []Diagnosis
	for _, s := range sources {
		for _, d := range s.Diagnoses {
			code := strings.ToUpper(strings.TrimSpace(d.Code))
			if code == "" {
				continue
			}
			d.Code = code
			if idx, ok := byCode[code]; ok {
				if d.Confidence > out[idx].Confidence {
					out[idx] = d
				}
				continue
			}
			byCode[code] = len(out)
			out = append(out, d)
		}
	}
	return out
}

func mergeAntecedents(sources []SourceRecord) []Antecedent {
	type key struct{ typ, desc string }
	byKey := map[key]int{}
	var out []Antecedent
	for _, s := range sources {
		for _, a := range s.Antecedents {
			if a.Description == "" {
				continue
			}
			k := key{NormalizeText(a.Type), NormalizeText(a.Description)}
			idx, ok := byKey[k]
			if !ok {
				byKey[k] = len(out)
				out = append(out, a)
				continue
			}
			prev, okPrev := ParseDate(out[idx].ApproxDate)
			next, okNext := ParseDate(a.ApproxDate)
			if okPrev && okNext && next.After(prev) {
				out[idx] = a
			}
		}
	}
	return out
}

func mergeExams(sources []SourceRecord) []Exam {
	type key struct{ typ, date string }
	byKey := map[key]int{}
	var out []Exam
	for _, s := range sources {
		for _, e := range s.Exams {
			if !ExamRelevant(e) {
				continue
			}
			k := key{NormalizeText(e.Type), e.Date}
			if idx, ok := byKey[k]; ok {
				out[idx] = e // last write wins
				continue
			}
			byKey[k] = len(out)
			out = append(out, e)
		}
	}
	sortByDateDesc(out, func(e Exam) string { return e.Date })
	return out
}

func mergeIncapacities(sources []SourceRecord) []Incapacity {
	type key struct{ start, typ string }
	byKey := map[key]int{}
	var out []Incapacity
	for _, s := range sources {
		for _, inc := range s.Incapacities {
			k := key{inc.StartDate, NormalizeText(inc.Type)}
			if idx, ok := byKey[k]; ok {
				out[idx] = inc
				continue
			}
			byKey[k] = len(out)
			out = append(out, inc)
		}
	}
	sortByDateDesc(out, func(i Incapacity) string { return i.StartDate })
	return out
}

var priorityRank = map[string]int{"high": 3, "medium": 2, "low": 1}

func mergeRecommendations(sources []SourceRecord) []Recommendation {
	type key struct{ typ, desc string }
	byKey := map[key]int{}
	var out []Recommendation
	for _, s := range sources {
		for _, r := range s.Recommendations {
			if r.Description == "" {
				continue
			}
			k := key{NormalizeText(r.Type), NormalizeText(r.Description)}
			idx, ok := byKey[k]
			if !ok {
				byKey[k] = len(out)
				out = append(out, r)
				continue
			}
			if priorityRank[r.Priority] > priorityRank[out[idx].Priority] {
				out[idx] = r
			}
		}
	}
	return out
}

func mergeReferrals(sources []SourceRecord) []Referral {
	type key struct{ specialty, reason string }
	byKey := map[key]int{}
	var out []Referral
	for _, s := range sources {
		for _, r := range s.Referrals {
			if r.Specialty == "" {
				continue
			}
			k := key{NormalizeText(r.Specialty), NormalizeText(r.Reason)}
			idx, ok := byKey[k]
			if !ok {
				byKey[k] = len(out)
				out = append(out, r)
				continue
			}
			prev, okPrev := ParseDate(out[idx].PlannedDate)
			next, okNext := ParseDate(r.PlannedDate)
			if okPrev && okNext && next.After(prev) {
				out[idx] = r
			}
		}
	}
	return out
}

var programSeparators = strings.NewReplacer("-", " ", "_", " ", "/", " ", ".", " ")

// programKey folds separator and accent spelling differences so
// "SVE Auditivo" and "sve_auditivo" collapse to one entry.
func programKey(p string) string {
	return NormalizeText(programSeparators.Replace(p))
}

func mergePrograms(sources []SourceRecord) []string {
	seen := map[string]string{}
	for _, s := range sources {
		for _, p := range s.SurveillancePrograms {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			k := programKey(p)
			if _, ok := seen[k]; !ok {
				seen[k] = p
			}
		}
	}
	out := make([]string, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func sortByDateDesc[T any](items []T, dateOf func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, oki := ParseDate(dateOf(items[i]))
		tj, okj := ParseDate(dateOf(items[j]))
		if oki != okj {
			return oki // dated entries first
		}
		if !oki {
			return false
		}
		return ti.After(tj)
	})
}

// ── Exam relevance ──

var normalEquivalents = map[string]bool{
	"":                      true,
	"normal":                true,
	"normales":              true,
	"no findings":           true,
	"none":                  true,
	"no abnormal findings":  true,
	"within normal limits":  true,
	"sin hallazgos":         true,
	"sin alteraciones":      true,
	"dentro de lo normal":   true,
	"no significant change": true,
}

func isNormalText(s string) bool {
	return normalEquivalents[NormalizeText(s)]
}

// ExamRelevant decides whether an exam carries signal worth keeping. A
// clean-normal exam with nothing in findings or result is dropped;
// ambiguous input is kept.
func ExamRelevant(e Exam) bool {
	switch NormalizeText(e.Interpretation) {
	case "altered", "critical", "abnormal":
		return true
	}
	if !isNormalText(e.KeyFindings) {
		return true
	}
	if !isNormalText(e.Result) {
		return true
	}
	return NormalizeText(e.Interpretation) != "normal"
}

// ── Restriction sanitation ──

type textRule struct {
	pattern *regexp.Regexp
	label   string
}

// Protective-equipment phrasing belongs in recommendations, not in the
// restrictions field.
var protectiveEquipmentRules = []textRule{
	{regexp.MustCompile(`(?i)\buse\s+of\s+(corrective\s+lenses|glasses|lenses|hearing\s+protection|ear\s*(plugs|muffs|protection)|ppe|personal\s+protective\s+equipment|respirator|safety\s+(glasses|goggles|boots|footwear)|gloves|helmet)\b`), "equipment usage"},
	{regexp.MustCompile(`(?i)\buso\s+de\s+(lentes|gafas|proteccion\s+auditiva|tapones|epp|elementos\s+de\s+proteccion|respirador|guantes|casco|botas)\b`), "equipment usage (es)"},
	{regexp.MustCompile(`(?i)\bwear(ing)?\s+(hearing|eye|respiratory)\s+protection\b`), "equipment wearing"},
}

var activityLimitationRules = []textRule{
	{regexp.MustCompile(`(?i)\b(do\s+not|don't|must\s+not|no)\s+(lift|carry|push|pull|climb|operate|drive)\b`), "prohibited action"},
	{regexp.MustCompile(`(?i)\bavoid\b`), "avoidance"},
	{regexp.MustCompile(`(?i)\bno\s+(night\s+shifts?|heights?|overtime|trabajo\s+en\s+alturas?|turnos?\s+nocturnos?)\b`), "schedule/height limit"},
	{regexp.MustCompile(`(?i)\b(limit|restrict|evitar|no\s+levantar|no\s+cargar|no\s+manipular)\b`), "limitation verb"},
	{regexp.MustCompile(`(?i)\bmaximum\s+\d+|\bover\s+\d+\s*(kg|lb)\b|\bmore\s+than\s+\d+`), "quantified limit"},
}

func matchesAny(rules []textRule, s string) bool {
	for _, r := range rules {
		if r.pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// SanitizeRestrictions clears a restrictions text that only prescribes
// protective equipment and states no genuine activity limitation.
func SanitizeRestrictions(text string) string {
	if text == "" {
		return ""
	}
	if matchesAny(protectiveEquipmentRules, text) && !matchesAny(activityLimitationRules, text) {
		return ""
	}
	return text
}

func meanDiagnosisConfidence(diagnoses []Diagnosis) float64 {
	if len(diagnoses) == 0 {
		return 0
	}
	var sum float64
	for _, d := range diagnoses {
		sum += d.Confidence
	}
	return sum / float64(len(diagnoses))
}
