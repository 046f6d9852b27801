package surveillance

import (
	"reflect"
	"testing"
)

func TestMatcher_Evaluate(t *testing.T) {
	m := NewMatcher(DefaultCatalog())

	eval := m.Evaluate(
		[]string{"H90.3", "M54.5", "I10"},
		[]string{"sve-auditory"},
	)

	if len(eval.ProgramAlerts) != 1 {
		t.Fatalf("program alerts = %d, want 1", len(eval.ProgramAlerts))
	}
	a := eval.ProgramAlerts[0]
	if a.ProgramID != "sve-auditory" {
		t.Errorf("alert program = %s", a.ProgramID)
	}
	if !reflect.DeepEqual(a.MatchedDiagnoses, []string{"H90.3"}) {
		t.Errorf("matched diagnoses = %v", a.MatchedDiagnoses)
	}

	// M54.5 and I10 fall under programs the company is not enrolled in
	if len(eval.ReferralCandidates) != 2 {
		t.Fatalf("referral candidates = %d, want 2 (%+v)", len(eval.ReferralCandidates), eval.ReferralCandidates)
	}
	specialists := map[string]bool{}
	for _, rc := range eval.ReferralCandidates {
		specialists[rc.Specialist] = true
	}
	if !specialists["Internal Medicine"] || !specialists["Physiatry / Physical Therapy"] {
		t.Errorf("unexpected specialists: %v", specialists)
	}
}

func TestMatcher_EnrollmentSpellingTolerance(t *testing.T) {
	m := NewMatcher(DefaultCatalog())
	for _, spelling := range []string{"sve-auditory", "SVE Auditory", "sve_auditory", "Auditory"} {
		eval := m.Evaluate([]string{"H90.3"}, []string{spelling})
		if len(eval.ProgramAlerts) != 1 {
			t.Errorf("enrollment spelled %q: expected a program alert, got %+v", spelling, eval)
		}
	}
}

func TestMatcher_CodeVariantMatch(t *testing.T) {
	m := NewMatcher(DefaultCatalog())

	// catalog covers H90; subcategory and dotless forms must still match
	for _, code := range []string{"H90", "H90.3", "H903", "h90.3"} {
		if _, ok := m.match(code); !ok {
			t.Errorf("expected %q to match the auditory program", code)
		}
	}

	// G56.0 is in the catalog with a subcategory; the bare base matches too
	if entry, ok := m.match("G56"); !ok || entry.ID != "sve-musculoskeletal" {
		t.Errorf("match(G56) = %+v, %v", entry, ok)
	}
}

func TestMatcher_UnknownCodesIgnored(t *testing.T) {
	m := NewMatcher(DefaultCatalog())
	eval := m.Evaluate([]string{"Z00.0", "K29.7"}, []string{"sve-auditory"})
	if len(eval.ProgramAlerts) != 0 || len(eval.ReferralCandidates) != 0 {
		t.Errorf("codes outside the catalog must be ignored, got %+v", eval)
	}
}

func TestMatcher_DuplicateCodesCollapse(t *testing.T) {
	m := NewMatcher(DefaultCatalog())
	eval := m.Evaluate([]string{"H90.3", "H90.3", "H91.0"}, []string{"sve-auditory"})
	if len(eval.ProgramAlerts) != 1 {
		t.Fatalf("program alerts = %d, want 1", len(eval.ProgramAlerts))
	}
	if got := eval.ProgramAlerts[0].MatchedDiagnoses; len(got) != 2 {
		t.Errorf("matched diagnoses = %v, want two distinct codes", got)
	}
}

func TestMatcher_DefaultSpecialist(t *testing.T) {
	m := NewMatcher([]CatalogEntry{{
		ID: "sve-custom", Name: "Custom Program",
		Diagnoses: []CatalogDiagnosis{{Code: "Z57"}},
	}})
	eval := m.Evaluate([]string{"Z57.0"}, nil)
	if len(eval.ReferralCandidates) != 1 {
		t.Fatalf("referral candidates = %d, want 1", len(eval.ReferralCandidates))
	}
	if eval.ReferralCandidates[0].Specialist != DefaultSpecialist {
		t.Errorf("specialist = %s, want default", eval.ReferralCandidates[0].Specialist)
	}
}
