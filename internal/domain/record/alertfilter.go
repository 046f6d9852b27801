package record

import (
	"regexp"
	"strings"
)

// Alert kinds that always survive filtering, whatever the rest of the rules
// say. Inconsistencies, malformed values and date problems are the signal
// this pipeline exists to surface.
var alertWhitelist = map[string]bool{
	AlertDiagnosticInconsistency: true,
	AlertMalformedValue:          true,
	AlertCriticalValue:           true,
	AlertInvalidDate:             true,
}

// Administrative vocabulary. A missing_data alert about any of these is an
// HR problem, not a clinical one. Whole-word matching keeps "age" from
// firing inside "coverage".
var administrativeFieldRe = regexp.MustCompile(`(?i)\b(employer|insurer|health provider|risk insurer|eps|arl|affiliation|afiliacion|department|area|tenure|antiguedad|age|edad|sex|sexo|birth[ _]?date|fecha de nacimiento)\b`)

// Fields a standalone exam document is structurally unable to provide.
var specificExamInapplicable = map[string]bool{
	"evaluation_type": true,
	"evaluation_date": true,
	"work_fitness":    true,
	"diagnoses":       true,
}

// FilterAlerts reduces raw validator output to the alerts worth a human
// reviewer's time. Whitelisted kinds pass untouched; missing_data alerts
// are dropped when administrative, stale, or inapplicable to the dominant
// document type. Duplicates are the caller's concern.
func FilterAlerts(alerts []Alert, rec *ConsolidatedRecord, dominant string) []Alert {
	kept := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if alertWhitelist[a.Kind] {
			kept = append(kept, a)
			continue
		}
		if a.Kind == AlertIncompleteEvaluation {
			continue
		}
		if a.Kind == AlertMissingData {
			if administrativeFieldRe.MatchString(a.AffectedField) || administrativeFieldRe.MatchString(a.Description) {
				continue
			}
			if fieldPopulated(rec, a.AffectedField) {
				continue
			}
			if dominant == SourceSpecificExam && specificExamInapplicable[a.AffectedField] {
				continue
			}
			if dominant == SourceOccupationalCertificate && strings.HasPrefix(a.AffectedField, "vital_signs") {
				// certificates summarize a verdict; they rarely transcribe vitals
				continue
			}
		}
		kept = append(kept, a)
	}
	return kept
}

// fieldPopulated guards against stale missing_data alerts describing a field
// that is in fact filled on the final record. Unknown paths report false so
// the alert survives.
func fieldPopulated(rec *ConsolidatedRecord, field string) bool {
	switch field {
	case "evaluation_date":
		return rec.EvaluationDate != ""
	case "evaluation_type":
		return rec.EvaluationType != ""
	case "work_fitness":
		return rec.WorkFitness != ""
	case "restrictions_text":
		return rec.RestrictionsText != ""
	case "return_to_work_cause":
		return rec.ReturnToWorkCause != ""
	case "diagnoses":
		return len(rec.Diagnoses) > 0
	case "exams":
		return len(rec.Exams) > 0
	case "recommendations":
		return len(rec.Recommendations) > 0
	case "vital_signs":
		return !rec.VitalSigns.IsZero()
	case "employee_data.full_name":
		return rec.EmployeeData.FullName != ""
	case "employee_data.document":
		return rec.EmployeeData.Document != ""
	case "employee_data.position":
		return rec.EmployeeData.Position != ""
	}
	return false
}
