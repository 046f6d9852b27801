package record

import (
	"strings"
	"testing"
	"time"
)

var validateNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	v := NewValidator(5)
	v.Now = func() time.Time { return validateNow }
	return v
}

func countKind(alerts []Alert, kind string) int {
	n := 0
	for _, a := range alerts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func findAlert(alerts []Alert, kind, field string) *Alert {
	for i := range alerts {
		if alerts[i].Kind == kind && alerts[i].AffectedField == field {
			return &alerts[i]
		}
	}
	return nil
}

func completeRecord() *ConsolidatedRecord {
	return &ConsolidatedRecord{
		EvaluationDate: "2026-02-01",
		WorkFitness:    FitnessFit,
		Diagnoses:      []Diagnosis{{Code: "M54.5", Type: "principal", Confidence: 0.9}},
	}
}

// ── Diagnosis codes ──

func TestDiagnosisCodeAlerts(t *testing.T) {
	cases := []struct {
		code         string
		wantSeverity string // "" means no alert
	}{
		{"M54.5", ""},
		{"M54", SeverityLow},
		{"XYZ", SeverityHigh},
		{"m54.5", SeverityHigh},
		{"U07.1", SeverityHigh},
		{"C99.1", SeverityHigh}, // chapter C stops at 97
	}
	for _, tc := range cases {
		a := diagnosisCodeAlert(tc.code)
		switch {
		case tc.wantSeverity == "" && a != nil:
			t.Errorf("code %q: unexpected alert %+v", tc.code, a)
		case tc.wantSeverity != "" && a == nil:
			t.Errorf("code %q: expected %s alert", tc.code, tc.wantSeverity)
		case a != nil && a.Severity != tc.wantSeverity:
			t.Errorf("code %q: severity = %s, want %s", tc.code, a.Severity, tc.wantSeverity)
		}
	}
}

func TestValidate_MissingDataAlerts(t *testing.T) {
	v := newTestValidator()
	rec := &ConsolidatedRecord{}
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)

	for _, field := range []string{"diagnoses", "evaluation_date", "work_fitness"} {
		a := findAlert(alerts, AlertMissingData, field)
		if a == nil {
			t.Errorf("expected missing_data alert for %s", field)
			continue
		}
		if a.Severity != SeverityHigh {
			t.Errorf("%s: severity = %s, want high", field, a.Severity)
		}
	}
}

func TestValidate_SpecificExamSkipsStructuralChecks(t *testing.T) {
	v := newTestValidator()
	rec := &ConsolidatedRecord{}
	alerts := v.ValidateAndNormalize(rec, SourceSpecificExam)
	if len(alerts) != 0 {
		t.Errorf("expected no structural alerts for specific_exam, got %+v", alerts)
	}
}

func TestValidate_EvaluationDateWindow(t *testing.T) {
	v := newTestValidator()

	rec := completeRecord()
	rec.EvaluationDate = "2019-01-01"
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	a := findAlert(alerts, AlertMalformedValue, "evaluation_date")
	if a == nil || a.Severity != SeverityMedium {
		t.Errorf("expected medium malformed_value for stale date, got %+v", alerts)
	}

	rec = completeRecord()
	rec.EvaluationDate = "2030-01-01"
	alerts = v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if findAlert(alerts, AlertMalformedValue, "evaluation_date") == nil {
		t.Error("expected malformed_value for future date")
	}

	rec = completeRecord()
	rec.EvaluationDate = "soon"
	alerts = v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if findAlert(alerts, AlertInvalidDate, "evaluation_date") == nil {
		t.Error("expected invalid_date for unparseable date")
	}
}

func TestValidate_RestrictionsWithoutDiagnoses(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = nil
	rec.RestrictionsText = "no night shifts"
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	a := findAlert(alerts, AlertDiagnosticInconsistency, "restrictions_text")
	if a == nil || a.Severity != SeverityMedium {
		t.Errorf("expected medium diagnostic_inconsistency, got %+v", alerts)
	}
}

func TestValidate_ReturnToWorkWithoutCause(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.ReturnToWork = true
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if findAlert(alerts, AlertMissingData, "return_to_work_cause") == nil {
		t.Error("expected missing_data alert for absent return-to-work cause")
	}
}

// ── Vital signs ──

func TestValidate_ImplausibleVitalIsNulledAndAlerted(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.VitalSigns = &VitalSigns{HeartRate: fp(999)}
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)

	a := findAlert(alerts, AlertCriticalValue, "vital_signs.heart_rate")
	if a == nil || a.Severity != SeverityHigh {
		t.Fatalf("expected high critical_value for heart rate 999, got %+v", alerts)
	}
	if rec.VitalSigns.HeartRate != nil {
		t.Error("implausible heart rate must be nulled, not kept")
	}
}

func TestValidate_BloodPressure(t *testing.T) {
	v := newTestValidator()

	rec := completeRecord()
	rec.VitalSigns = &VitalSigns{BloodPressure: sp("185/115")}
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	a := findAlert(alerts, AlertCriticalValue, "vital_signs.blood_pressure")
	if a == nil || a.Severity != SeverityHigh || !strings.Contains(a.Description, "hypertensive crisis") {
		t.Errorf("expected hypertensive crisis alert, got %+v", alerts)
	}

	rec = completeRecord()
	rec.VitalSigns = &VitalSigns{BloodPressure: sp("145/92")}
	alerts = v.ValidateAndNormalize(rec, SourceCompleteHistory)
	a = findAlert(alerts, AlertCriticalValue, "vital_signs.blood_pressure")
	if a == nil || a.Severity != SeverityMedium {
		t.Errorf("expected medium alert for 145/92, got %+v", alerts)
	}

	rec = completeRecord()
	rec.VitalSigns = &VitalSigns{BloodPressure: sp("garbled")}
	alerts = v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if findAlert(alerts, AlertMalformedValue, "vital_signs.blood_pressure") == nil {
		t.Errorf("expected malformed_value for unparseable pressure, got %+v", alerts)
	}
	if rec.VitalSigns.BloodPressure != nil {
		t.Error("unparseable blood pressure must be nulled")
	}
}

func TestValidate_ExtremeBMI(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.VitalSigns = &VitalSigns{BMI: fp(42)}
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if findAlert(alerts, AlertCriticalValue, "vital_signs.bmi") == nil {
		t.Errorf("expected critical_value for BMI 42, got %+v", alerts)
	}
	if rec.VitalSigns.BMI == nil {
		t.Error("BMI 42 is plausible and must be kept")
	}
}

func TestValidate_LowOxygenSaturation(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.VitalSigns = &VitalSigns{OxygenSaturation: fp(85)}
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if countKind(alerts, AlertCriticalValue) != 1 {
		t.Errorf("expected one critical_value for SpO2 85, got %+v", alerts)
	}
	if rec.VitalSigns.OxygenSaturation == nil {
		t.Error("SpO2 85 is plausible and must be kept")
	}
}

// ── Cross-field checks ──

func TestValidate_VisualInconsistency(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "H52.1", Description: "bilateral myopia", Type: "principal", Confidence: 0.9}}
	rec.Exams = []Exam{{Type: "optometry", Date: "2026-02-01", Result: "20/20 corrected vision"}}

	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	inconsistencies := 0
	for _, a := range alerts {
		if a.Kind == AlertDiagnosticInconsistency && a.Severity == SeverityLow {
			inconsistencies++
			if !strings.Contains(a.Description, "H52.1") {
				t.Errorf("alert should reference the diagnosis: %q", a.Description)
			}
		}
	}
	if inconsistencies != 1 {
		t.Errorf("expected exactly one low diagnostic_inconsistency, got %d (%+v)", inconsistencies, alerts)
	}
}

func TestValidate_AuditoryInconsistency(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "H90.3", Description: "sensorineural hearing loss", Type: "principal", Confidence: 0.9}}
	rec.Exams = []Exam{{Type: "audiometry", Date: "2026-02-01", Interpretation: "normal", Result: "normal hearing both ears"}}

	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if countKind(alerts, AlertDiagnosticInconsistency) != 1 {
		t.Errorf("expected one diagnostic_inconsistency, got %+v", alerts)
	}
}

func TestValidate_RespiratoryInconsistency(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "J45.0", Description: "asthma", Type: "principal", Confidence: 0.9}}
	rec.Exams = []Exam{{Type: "spirometry", Date: "2026-02-01", Interpretation: "normal"}}

	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if countKind(alerts, AlertDiagnosticInconsistency) != 1 {
		t.Errorf("expected one diagnostic_inconsistency, got %+v", alerts)
	}
}

func TestValidate_NoInconsistencyWhenExamAltered(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "H90.3", Description: "hearing loss", Type: "principal", Confidence: 0.9}}
	rec.Exams = []Exam{{Type: "audiometry", Date: "2026-02-01", Interpretation: "altered",
		KeyFindings: "bilateral loss at high frequencies"}}

	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if n := countKind(alerts, AlertDiagnosticInconsistency); n != 0 {
		t.Errorf("expected no inconsistency, got %d (%+v)", n, alerts)
	}
}

func TestValidate_UnreflectedCriticalExam(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "M54.5", Description: "low back pain", Type: "principal", Confidence: 0.9}}
	rec.Exams = []Exam{{Type: "ecg", Name: "resting ECG", Date: "2026-02-01", Interpretation: "critical"}}

	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	a := findAlert(alerts, AlertDiagnosticInconsistency, "exams")
	if a == nil || a.Severity != SeverityLow {
		t.Errorf("expected low alert for unreflected ECG finding, got %+v", alerts)
	}

	// the same finding echoed in a recommendation clears the alert
	rec = completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "M54.5", Description: "low back pain", Type: "principal", Confidence: 0.9}}
	rec.Exams = []Exam{{Type: "ecg", Name: "resting ECG", Date: "2026-02-01", Interpretation: "critical"}}
	rec.Recommendations = []Recommendation{{Description: "cardiology referral for abnormal ECG"}}
	alerts = v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if findAlert(alerts, AlertDiagnosticInconsistency, "exams") != nil {
		t.Error("reflected finding should not alert")
	}
}

func TestValidate_LowConfidenceDiagnosis(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "M54.5", Type: "principal", Confidence: 0.5}}
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	a := findAlert(alerts, AlertMissingData, "diagnoses.confidence")
	if a == nil || a.Severity != SeverityMedium {
		t.Errorf("expected medium alert for low-confidence diagnosis, got %+v", alerts)
	}
}

func TestValidate_NoPrincipalDiagnosis(t *testing.T) {
	v := newTestValidator()
	rec := completeRecord()
	rec.Diagnoses = []Diagnosis{{Code: "M54.5", Type: "secondary", Confidence: 0.9}}
	alerts := v.ValidateAndNormalize(rec, SourceCompleteHistory)
	if findAlert(alerts, AlertDiagnosticInconsistency, "diagnoses") == nil {
		t.Errorf("expected alert for missing principal diagnosis, got %+v", alerts)
	}
}
