package record

import (
	"time"

	"github.com/google/uuid"
)

// Source document types. A complete history or an occupational certificate
// describes a full evaluation; a specific exam is a standalone partial
// document (audiometry report, lab panel, ...).
const (
	SourceCompleteHistory         = "complete_history"
	SourceOccupationalCertificate = "occupational_certificate"
	SourceSpecificExam            = "specific_exam"
	SourceConsolidated            = "consolidated"
)

// Work fitness verdicts.
const (
	FitnessFit                 = "fit"
	FitnessFitNoRestrictions   = "fit_no_restrictions"
	FitnessFitRecommendations  = "fit_with_recommendations"
	FitnessFitWithRestrictions = "fit_with_restrictions"
	FitnessUnfitTemporary      = "unfit_temporary"
	FitnessUnfitPermanent      = "unfit_permanent"
	FitnessPending             = "pending"
)

// Alert kinds.
const (
	AlertDiagnosticInconsistency = "diagnostic_inconsistency"
	AlertMissingData             = "missing_data"
	AlertCriticalValue           = "critical_value"
	AlertMalformedValue          = "malformed_value"
	AlertInvalidDate             = "invalid_date"
	AlertIncompleteEvaluation    = "incomplete_evaluation"
)

// Alert severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

var validSourceTypes = map[string]bool{
	SourceCompleteHistory:         true,
	SourceOccupationalCertificate: true,
	SourceSpecificExam:            true,
}

var validWorkFitness = map[string]bool{
	FitnessFit:                 true,
	FitnessFitNoRestrictions:   true,
	FitnessFitRecommendations:  true,
	FitnessFitWithRestrictions: true,
	FitnessUnfitTemporary:      true,
	FitnessUnfitPermanent:      true,
	FitnessPending:             true,
}

var validEvaluationTypes = map[string]bool{
	"preemployment":   true,
	"periodic":        true,
	"job_change":      true,
	"post_incapacity": true,
	"exit":            true,
	"follow_up":       true,
}

// EmployeeData holds the demographic and employment fields extracted from a
// document. Every field is independently optional.
type EmployeeData struct {
	FullName       string `json:"full_name,omitempty"`
	Document       string `json:"document,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	BirthDate      string `json:"birth_date,omitempty"`
	Age            *int   `json:"age,omitempty"`
	Sex            string `json:"sex,omitempty"`
	Position       string `json:"position,omitempty"`
	Department     string `json:"department,omitempty"`
	Employer       string `json:"employer,omitempty"`
	TenureMonths   *int   `json:"tenure_months,omitempty"`
	HealthProvider string `json:"health_provider,omitempty"`
	RiskInsurer    string `json:"risk_insurer,omitempty"`
}

// VitalSigns is the numeric block taken from the physical exam section.
// Blood pressure keeps its "systolic/diastolic" string form as written.
type VitalSigns struct {
	BloodPressure    *string  `json:"blood_pressure,omitempty"`
	HeartRate        *float64 `json:"heart_rate,omitempty"`
	RespiratoryRate  *float64 `json:"respiratory_rate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	OxygenSaturation *float64 `json:"oxygen_saturation,omitempty"`
	WeightKg         *float64 `json:"weight_kg,omitempty"`
	HeightCm         *float64 `json:"height_cm,omitempty"`
	BMI              *float64 `json:"bmi,omitempty"`
}

// IsZero reports whether no vital sign at all was captured.
func (v *VitalSigns) IsZero() bool {
	if v == nil {
		return true
	}
	return v.BloodPressure == nil && v.HeartRate == nil && v.RespiratoryRate == nil &&
		v.Temperature == nil && v.OxygenSaturation == nil && v.WeightKg == nil &&
		v.HeightCm == nil && v.BMI == nil
}

// Diagnosis is one coded condition. Code follows the letter + two digits +
// optional ".subcategory" scheme.
type Diagnosis struct {
	Code        string  `json:"code"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type,omitempty"` // principal | secondary | finding
	WorkRelated bool    `json:"work_related"`
	Confidence  float64 `json:"confidence"`
}

// Exam is one complementary exam result.
type Exam struct {
	Type           string   `json:"type"` // lab | imaging | functional | audiometry | spirometry | optometry | ecg | other
	Name           string   `json:"name,omitempty"`
	Date           string   `json:"date,omitempty"`
	Result         string   `json:"result,omitempty"`
	NumericValue   *float64 `json:"numeric_value,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	ReferenceRange string   `json:"reference_range,omitempty"`
	KeyFindings    string   `json:"key_findings,omitempty"`
	Interpretation string   `json:"interpretation,omitempty"` // normal | altered | critical
}

// Antecedent is one personal, family or occupational history entry.
type Antecedent struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
	ApproxDate  string `json:"approx_date,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// Incapacity is one period of medical leave.
type Incapacity struct {
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`
	TotalDays        *int   `json:"total_days,omitempty"`
	Type             string `json:"type,omitempty"`
	Extension        bool   `json:"extension,omitempty"`
	RelatedDiagnosis string `json:"related_diagnosis,omitempty"`
}

// Recommendation is one care or prevention instruction.
type Recommendation struct {
	Type             string `json:"type,omitempty"`
	Description      string `json:"description"`
	ValidityMonths   *int   `json:"validity_months,omitempty"`
	Priority         string `json:"priority,omitempty"` // high | medium | low
	RequiresFollowUp bool   `json:"requires_follow_up,omitempty"`
}

// Referral is one pending specialist referral.
type Referral struct {
	Specialty        string `json:"specialty"`
	Reason           string `json:"reason,omitempty"`
	PlannedDate      string `json:"planned_date,omitempty"`
	RequiresFollowUp bool   `json:"requires_follow_up,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

// Alert flags a data-quality or clinical-coherence finding on a consolidated
// record. Source records never carry alerts.
type Alert struct {
	Kind            string `json:"kind"`
	Severity        string `json:"severity"`
	AffectedField   string `json:"affected_field,omitempty"`
	Description     string `json:"description"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

// SourceRecord is one document's extraction result. It is immutable input to
// the consolidation pipeline.
type SourceRecord struct {
	ID                   uuid.UUID        `json:"id,omitempty"`
	SourceFile           string           `json:"source_file,omitempty"`
	SourceType           string           `json:"source_type"`
	EmployeeData         EmployeeData     `json:"employee_data"`
	EvaluationType       string           `json:"evaluation_type,omitempty"`
	EvaluationDate       string           `json:"evaluation_date,omitempty"`
	VitalSigns           *VitalSigns      `json:"vital_signs,omitempty"`
	PhysicalExamFindings string           `json:"physical_exam_findings,omitempty"`
	Antecedents          []Antecedent     `json:"antecedents,omitempty"`
	Diagnoses            []Diagnosis      `json:"diagnoses,omitempty"`
	Incapacities         []Incapacity     `json:"incapacities,omitempty"`
	Exams                []Exam           `json:"exams,omitempty"`
	Recommendations      []Recommendation `json:"recommendations,omitempty"`
	Referrals            []Referral       `json:"referrals,omitempty"`
	WorkFitness          string           `json:"work_fitness,omitempty"`
	RestrictionsText     string           `json:"restrictions_text,omitempty"`
	SurveillancePrograms []string         `json:"surveillance_programs,omitempty"`
	ReturnToWork         bool             `json:"return_to_work,omitempty"`
	ReturnToWorkCause    string           `json:"return_to_work_cause,omitempty"`
	Confidence           float64          `json:"confidence,omitempty"`
	ProcessingNotes      string           `json:"processing_notes,omitempty"`
}

// ConsolidatedRecord is the single merged record for one person. It has the
// SourceRecord shape plus provenance fields and a populated alert list.
type ConsolidatedRecord struct {
	ID        uuid.UUID `json:"id"`
	PersonRef string    `json:"person_ref"`

	SourceType           string           `json:"source_type"` // always "consolidated"
	EmployeeData         EmployeeData     `json:"employee_data"`
	EvaluationType       string           `json:"evaluation_type,omitempty"`
	EvaluationDate       string           `json:"evaluation_date,omitempty"`
	VitalSigns           *VitalSigns      `json:"vital_signs,omitempty"`
	PhysicalExamFindings string           `json:"physical_exam_findings,omitempty"`
	Antecedents          []Antecedent     `json:"antecedents,omitempty"`
	Diagnoses            []Diagnosis      `json:"diagnoses,omitempty"`
	Incapacities         []Incapacity     `json:"incapacities,omitempty"`
	Exams                []Exam           `json:"exams,omitempty"`
	Recommendations      []Recommendation `json:"recommendations,omitempty"`
	Referrals            []Referral       `json:"referrals,omitempty"`
	WorkFitness          string           `json:"work_fitness,omitempty"`
	RestrictionsText     string           `json:"restrictions_text,omitempty"`
	SurveillancePrograms []string         `json:"surveillance_programs,omitempty"`
	ReturnToWork         bool             `json:"return_to_work,omitempty"`
	ReturnToWorkCause    string           `json:"return_to_work_cause,omitempty"`
	Confidence           float64          `json:"confidence,omitempty"`

	Alerts         []Alert   `json:"alerts"`
	SourceFiles    []string  `json:"source_files"`
	SourceCount    int       `json:"source_count"`
	ConsolidatedAt time.Time `json:"consolidated_at"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// DominantSourceType reports the source type the record was mostly built
// from: specific_exam only when no full evaluation document contributed.
func DominantSourceType(sources []SourceRecord) string {
	for _, s := range sources {
		if s.SourceType == SourceCompleteHistory || s.SourceType == SourceOccupationalCertificate {
			return s.SourceType
		}
	}
	return SourceSpecificExam
}

// dateLayouts are the formats extraction is known to emit, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2006-01",
	"2006",
}

// ParseDate parses the loose date strings carried by extracted records.
// The boolean result is false when the value is empty or unparseable.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
