package record

import "testing"

func TestClassify(t *testing.T) {
	sources := []SourceRecord{
		{SourceFile: "a", SourceType: SourceSpecificExam},
		{SourceFile: "b", SourceType: SourceCompleteHistory},
		{SourceFile: "c", SourceType: SourceOccupationalCertificate},
		{SourceFile: "d", SourceType: SourceSpecificExam},
	}
	p := Classify(sources)
	if len(p.HighPriority) != 2 || len(p.LowPriority) != 2 {
		t.Fatalf("partition sizes = %d/%d, want 2/2", len(p.HighPriority), len(p.LowPriority))
	}
	if p.HighPriority[0].SourceFile != "b" || p.HighPriority[1].SourceFile != "c" {
		t.Error("high-priority relative order not preserved")
	}
	if p.LowPriority[0].SourceFile != "a" || p.LowPriority[1].SourceFile != "d" {
		t.Error("low-priority relative order not preserved")
	}
}

func TestByRecency(t *testing.T) {
	records := []SourceRecord{
		{SourceFile: "newest", EvaluationDate: "2025-03-01"},
		{SourceFile: "undated"},
		{SourceFile: "oldest", EvaluationDate: "2023-01-15"},
	}
	ordered := ByRecency(records)
	if ordered[0].SourceFile != "undated" {
		t.Errorf("expected undated record first, got %s", ordered[0].SourceFile)
	}
	if ordered[len(ordered)-1].SourceFile != "newest" {
		t.Errorf("expected newest record last, got %s", ordered[len(ordered)-1].SourceFile)
	}
	if records[0].SourceFile != "newest" {
		t.Error("input slice must not be reordered")
	}
}

func TestDominantSourceType(t *testing.T) {
	if got := DominantSourceType([]SourceRecord{{SourceType: SourceSpecificExam}}); got != SourceSpecificExam {
		t.Errorf("got %s, want specific_exam", got)
	}
	mixed := []SourceRecord{
		{SourceType: SourceSpecificExam},
		{SourceType: SourceCompleteHistory},
	}
	if got := DominantSourceType(mixed); got != SourceCompleteHistory {
		t.Errorf("got %s, want complete_history", got)
	}
}
