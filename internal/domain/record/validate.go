package record

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Validator runs structural and cross-field clinical checks over a
// consolidated record. Checks never fail the pipeline; every finding
// becomes an Alert. The vital-sign range check is the one check that also
// repairs: implausible values are nulled so a corrupted number is never
// persisted as if it were real.
type Validator struct {
	WindowYears int
	Now         func() time.Time
}

func NewValidator(windowYears int) *Validator {
	if windowYears <= 0 {
		windowYears = 5
	}
	return &Validator{WindowYears: windowYears, Now: time.Now}
}

// ValidateAndNormalize mutates rec (vital-sign nulling only) and returns the
// raw alert list. dominant is the dominant source type of the inputs; a
// record built only from specific exams skips the completeness checks.
// A panic inside any check degrades to a single incomplete_evaluation alert
// instead of aborting the merge.
func (v *Validator) ValidateAndNormalize(rec *ConsolidatedRecord, dominant string) (alerts []Alert) {
	defer func() {
		if r := recover(); r != nil {
			alerts = []Alert{{
				Kind:          AlertIncompleteEvaluation,
				Severity:      SeverityMedium,
				AffectedField: "record",
				Description:   fmt.Sprintf("validation could not be completed: %v", r),
			}}
		}
	}()

	if dominant != SourceSpecificExam {
		alerts = append(alerts, v.checkDiagnoses(rec)...)
		alerts = append(alerts, v.checkEvaluationDate(rec)...)
		alerts = append(alerts, v.checkFitness(rec)...)
		alerts = append(alerts, v.checkVitalSigns(rec)...)
	}
	alerts = append(alerts, v.checkCrossField(rec)...)
	return alerts
}

// ── Diagnosis structure ──

var (
	codeFull = regexp.MustCompile(`^[A-Z]\d{2}\.\d{1,2}$`)
	codeBase = regexp.MustCompile(`^[A-Z]\d{2}$`)
)

// chapterMax caps the two-digit block per code letter; letters absent from
// the map allow the full 00-99 range. U is reserved.
var chapterMax = map[byte]int{
	'C': 97, 'D': 89, 'E': 90, 'H': 95, 'K': 93, 'P': 96, 'T': 98, 'Y': 98,
}

func diagnosisCodeAlert(code string) *Alert {
	highAlert := func(desc string) *Alert {
		return &Alert{
			Kind: AlertMalformedValue, Severity: SeverityHigh,
			AffectedField: "diagnoses.code",
			Description:   desc,
			SuggestedAction: "verify the code against the source document",
		}
	}
	full := codeFull.MatchString(code)
	base := codeBase.MatchString(code)
	if !full && !base {
		return highAlert(fmt.Sprintf("diagnosis code %q does not follow the letter-digit-digit pattern", code))
	}
	if code[0] == 'U' {
		return highAlert(fmt.Sprintf("diagnosis code %q uses a reserved chapter", code))
	}
	if max, ok := chapterMax[code[0]]; ok {
		if n, err := strconv.Atoi(code[1:3]); err == nil && n > max {
			return highAlert(fmt.Sprintf("diagnosis code %q is outside the valid range for chapter %c", code, code[0]))
		}
	}
	if base {
		return &Alert{
			Kind: AlertMalformedValue, Severity: SeverityLow,
			AffectedField: "diagnoses.code",
			Description:   fmt.Sprintf("diagnosis code %q is missing its subcategory", code),
		}
	}
	return nil
}

const lowConfidenceThreshold = 0.7

func (v *Validator) checkDiagnoses(rec *ConsolidatedRecord) []Alert {
	var alerts []Alert
	if len(rec.Diagnoses) == 0 {
		alerts = append(alerts, Alert{
			Kind: AlertMissingData, Severity: SeverityHigh,
			AffectedField:   "diagnoses",
			Description:     "no diagnoses found in any source document",
			SuggestedAction: "review the source documents for missed diagnoses",
		})
	}
	hasPrincipal := false
	for _, d := range rec.Diagnoses {
		if a := diagnosisCodeAlert(d.Code); a != nil {
			alerts = append(alerts, *a)
		}
		if d.Confidence > 0 && d.Confidence < lowConfidenceThreshold {
			alerts = append(alerts, Alert{
				Kind: AlertMissingData, Severity: SeverityMedium,
				AffectedField: "diagnoses.confidence",
				Description:   fmt.Sprintf("diagnosis %s extracted with low confidence (%.2f)", d.Code, d.Confidence),
			})
		}
		if d.Type == "principal" {
			hasPrincipal = true
		}
	}
	if len(rec.Diagnoses) > 0 && !hasPrincipal {
		alerts = append(alerts, Alert{
			Kind: AlertDiagnosticInconsistency, Severity: SeverityMedium,
			AffectedField: "diagnoses",
			Description:   "no diagnosis is marked as principal",
		})
	}
	if rec.RestrictionsText != "" && len(rec.Diagnoses) == 0 {
		alerts = append(alerts, Alert{
			Kind: AlertDiagnosticInconsistency, Severity: SeverityMedium,
			AffectedField: "restrictions_text",
			Description:   "work restrictions present without any supporting diagnosis",
		})
	}
	return alerts
}

// ── Evaluation date and fitness ──

func (v *Validator) checkEvaluationDate(rec *ConsolidatedRecord) []Alert {
	if rec.EvaluationDate == "" {
		return []Alert{{
			Kind: AlertMissingData, Severity: SeverityHigh,
			AffectedField:   "evaluation_date",
			Description:     "evaluation date missing",
			SuggestedAction: "locate the evaluation date in the source documents",
		}}
	}
	t, ok := ParseDate(rec.EvaluationDate)
	if !ok {
		return []Alert{{
			Kind: AlertInvalidDate, Severity: SeverityMedium,
			AffectedField: "evaluation_date",
			Description:   fmt.Sprintf("evaluation date %q is not a recognizable date", rec.EvaluationDate),
		}}
	}
	now := v.Now()
	if t.After(now) {
		return []Alert{{
			Kind: AlertMalformedValue, Severity: SeverityMedium,
			AffectedField: "evaluation_date",
			Description:   fmt.Sprintf("evaluation date %s is in the future", rec.EvaluationDate),
		}}
	}
	if t.Before(now.AddDate(-v.WindowYears, 0, 0)) {
		return []Alert{{
			Kind: AlertMalformedValue, Severity: SeverityMedium,
			AffectedField: "evaluation_date",
			Description:   fmt.Sprintf("evaluation date %s is older than %d years", rec.EvaluationDate, v.WindowYears),
		}}
	}
	return nil
}

func (v *Validator) checkFitness(rec *ConsolidatedRecord) []Alert {
	var alerts []Alert
	if rec.WorkFitness == "" {
		alerts = append(alerts, Alert{
			Kind: AlertMissingData, Severity: SeverityHigh,
			AffectedField:   "work_fitness",
			Description:     "work fitness verdict missing",
			SuggestedAction: "check the certificate for the fitness verdict",
		})
	} else if !validWorkFitness[rec.WorkFitness] {
		alerts = append(alerts, Alert{
			Kind: AlertMalformedValue, Severity: SeverityMedium,
			AffectedField: "work_fitness",
			Description:   fmt.Sprintf("unrecognized work fitness value %q", rec.WorkFitness),
		})
	}
	if rec.ReturnToWork && rec.ReturnToWorkCause == "" {
		alerts = append(alerts, Alert{
			Kind: AlertMissingData, Severity: SeverityMedium,
			AffectedField: "return_to_work_cause",
			Description:   "return to work flagged without a stated cause",
		})
	}
	return alerts
}

// ── Vital signs (validate and normalize) ──

type vitalRange struct {
	field string
	min   float64
	max   float64
}

var vitalRanges = []vitalRange{
	{"heart_rate", 40, 200},
	{"respiratory_rate", 8, 40},
	{"temperature", 35.0, 42.0},
	{"oxygen_saturation", 70, 100},
	{"weight_kg", 20, 300},
	{"height_cm", 100, 250},
	{"bmi", 10, 60},
}

func vitalField(vs *VitalSigns, field string) **float64 {
	switch field {
	case "heart_rate":
		return &vs.HeartRate
	case "respiratory_rate":
		return &vs.RespiratoryRate
	case "temperature":
		return &vs.Temperature
	case "oxygen_saturation":
		return &vs.OxygenSaturation
	case "weight_kg":
		return &vs.WeightKg
	case "height_cm":
		return &vs.HeightCm
	case "bmi":
		return &vs.BMI
	}
	return nil
}

var bloodPressureRe = regexp.MustCompile(`^\s*(\d{2,3})\s*/\s*(\d{2,3})\s*$`)

func (v *Validator) checkVitalSigns(rec *ConsolidatedRecord) []Alert {
	vs := rec.VitalSigns
	if vs == nil {
		return nil
	}
	var alerts []Alert
	for _, r := range vitalRanges {
		slot := vitalField(vs, r.field)
		if slot == nil || *slot == nil {
			continue
		}
		val := **slot
		if val < r.min || val > r.max {
			alerts = append(alerts, Alert{
				Kind: AlertCriticalValue, Severity: SeverityHigh,
				AffectedField:   "vital_signs." + r.field,
				Description:     fmt.Sprintf("%s value %g is outside the plausible range %g-%g and was discarded", r.field, val, r.min, r.max),
				SuggestedAction: "re-read the value from the source document",
			})
			*slot = nil
			continue
		}
		switch r.field {
		case "oxygen_saturation":
			if val < 90 {
				alerts = append(alerts, Alert{
					Kind: AlertCriticalValue, Severity: SeverityHigh,
					AffectedField: "vital_signs.oxygen_saturation",
					Description:   fmt.Sprintf("oxygen saturation %g%% is below 90%%", val),
				})
			}
		case "bmi":
			if val < 16 || val >= 40 {
				alerts = append(alerts, Alert{
					Kind: AlertCriticalValue, Severity: SeverityHigh,
					AffectedField: "vital_signs.bmi",
					Description:   fmt.Sprintf("BMI %g indicates severe malnutrition or obesity", val),
				})
			}
		}
	}
	if vs.BloodPressure != nil {
		alerts = append(alerts, v.checkBloodPressure(vs)...)
	}
	return alerts
}

func (v *Validator) checkBloodPressure(vs *VitalSigns) []Alert {
	m := bloodPressureRe.FindStringSubmatch(*vs.BloodPressure)
	if m == nil {
		a := Alert{
			Kind: AlertMalformedValue, Severity: SeverityMedium,
			AffectedField: "vital_signs.blood_pressure",
			Description:   fmt.Sprintf("blood pressure %q is not in systolic/diastolic form and was discarded", *vs.BloodPressure),
		}
		vs.BloodPressure = nil
		return []Alert{a}
	}
	sys, _ := strconv.Atoi(m[1])
	dia, _ := strconv.Atoi(m[2])
	switch {
	case sys >= 180 || dia >= 110:
		return []Alert{{
			Kind: AlertCriticalValue, Severity: SeverityHigh,
			AffectedField:   "vital_signs.blood_pressure",
			Description:     fmt.Sprintf("blood pressure %d/%d indicates hypertensive crisis", sys, dia),
			SuggestedAction: "refer for immediate medical evaluation",
		}}
	case sys >= 140 || dia >= 90:
		return []Alert{{
			Kind: AlertCriticalValue, Severity: SeverityMedium,
			AffectedField: "vital_signs.blood_pressure",
			Description:   fmt.Sprintf("blood pressure %d/%d is in the hypertensive range", sys, dia),
		}}
	}
	return nil
}

// ── Cross-field clinical checks ──

type crossCheck struct {
	name        string
	codeMatch   func(code string) bool
	examType    string
	examNormal  func(e Exam) bool
	description string
}

func codePrefixMatch(prefixes ...string) func(string) bool {
	return func(code string) bool {
		code = strings.ToUpper(code)
		for _, p := range prefixes {
			if strings.HasPrefix(code, p) {
				return true
			}
		}
		return false
	}
}

var resolvedVisionRe = regexp.MustCompile(`(?i)20\s*/\s*20|corrected|corregid`)

var crossChecks = []crossCheck{
	{
		name:      "visual",
		codeMatch: codePrefixMatch("H52"),
		examType:  "optometry",
		examNormal: func(e Exam) bool {
			return isNormalText(e.Result) && isNormalText(e.KeyFindings) && NormalizeText(e.Interpretation) == "normal" ||
				resolvedVisionRe.MatchString(e.Result) || resolvedVisionRe.MatchString(e.KeyFindings)
		},
		description: "refractive diagnosis present but optometry indicates normal or corrected vision",
	},
	{
		name:      "auditory",
		codeMatch: codePrefixMatch("H90", "H91"),
		examType:  "audiometry",
		examNormal: func(e Exam) bool {
			return NormalizeText(e.Interpretation) == "normal" ||
				strings.Contains(NormalizeText(e.Result), "normal") ||
				strings.Contains(NormalizeText(e.KeyFindings), "normal")
		},
		description: "hearing-loss diagnosis present but audiometry indicates normal hearing",
	},
	{
		name:      "respiratory",
		codeMatch: codePrefixMatch("J44", "J45", "J60", "J61", "J62", "J63", "J64", "J66", "J67"),
		examType:  "spirometry",
		examNormal: func(e Exam) bool {
			return NormalizeText(e.Interpretation) == "normal" ||
				strings.Contains(NormalizeText(e.Result), "normal") ||
				strings.Contains(NormalizeText(e.KeyFindings), "normal")
		},
		description: "respiratory diagnosis present but spirometry indicates normal pulmonary function",
	},
}

// examEchoTerms maps an exam type to the vocabulary its altered finding is
// expected to surface under in diagnoses, recommendations or restrictions.
var examEchoTerms = map[string][]string{
	"audiometry": {"audiometr", "hearing", "auditory", "hipoacusia", "auditiv"},
	"spirometry": {"spirometr", "pulmonary", "respiratory", "lung", "espirometr", "respirator"},
	"optometry":  {"optometr", "vision", "visual", "eye", "refract", "visiometr"},
	"ecg":        {"ecg", "cardiac", "heart", "arrhythm", "electrocardiogram", "cardio"},
	"lab":        {"lab", "glucose", "cholesterol", "lipid", "hemogram"},
}

func (v *Validator) checkCrossField(rec *ConsolidatedRecord) []Alert {
	var alerts []Alert
	for _, check := range crossChecks {
		code := ""
		for _, d := range rec.Diagnoses {
			if check.codeMatch(d.Code) {
				code = d.Code
				break
			}
		}
		if code == "" {
			continue
		}
		for _, e := range rec.Exams {
			if NormalizeText(e.Type) != check.examType || !check.examNormal(e) {
				continue
			}
			alerts = append(alerts, Alert{
				Kind: AlertDiagnosticInconsistency, Severity: SeverityLow,
				AffectedField: "diagnoses",
				Description:   fmt.Sprintf("%s (diagnosis %s, exam %s)", check.description, code, examLabel(e)),
			})
			break
		}
	}
	alerts = append(alerts, v.checkUnreflectedFindings(rec)...)
	return alerts
}

func examLabel(e Exam) string {
	if e.Name != "" {
		return e.Name
	}
	return e.Type
}

// checkUnreflectedFindings flags altered or critical exams that left no
// textual trace in diagnoses, recommendations or restrictions.
func (v *Validator) checkUnreflectedFindings(rec *ConsolidatedRecord) []Alert {
	var sb strings.Builder
	for _, d := range rec.Diagnoses {
		sb.WriteString(d.Description)
		sb.WriteByte(' ')
	}
	for _, r := range rec.Recommendations {
		sb.WriteString(r.Description)
		sb.WriteByte(' ')
	}
	sb.WriteString(rec.RestrictionsText)
	haystack := NormalizeText(sb.String())

	var alerts []Alert
	for _, e := range rec.Exams {
		switch NormalizeText(e.Interpretation) {
		case "altered", "critical":
		default:
			continue
		}
		terms := append([]string{}, examEchoTerms[NormalizeText(e.Type)]...)
		if t := NormalizeText(e.Type); t != "" && t != "other" {
			terms = append(terms, t)
		}
		if n := NormalizeText(e.Name); n != "" {
			terms = append(terms, n)
		}
		reflected := false
		for _, term := range terms {
			if term != "" && strings.Contains(haystack, term) {
				reflected = true
				break
			}
		}
		if !reflected {
			alerts = append(alerts, Alert{
				Kind: AlertDiagnosticInconsistency, Severity: SeverityLow,
				AffectedField:   "exams",
				Description:     fmt.Sprintf("%s exam %s not reflected in diagnoses, recommendations or restrictions", e.Interpretation, examLabel(e)),
				SuggestedAction: "confirm the finding was assessed during the evaluation",
			})
		}
	}
	return alerts
}
