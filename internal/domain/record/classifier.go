package record

import "sort"

// Partition splits a person's source records by document trustworthiness.
// Complete histories and occupational certificates carry the authoritative
// evaluation-level fields; specific exams only ever fill gaps.
type Partition struct {
	HighPriority []SourceRecord
	LowPriority  []SourceRecord
}

// Classify partitions records by priority, preserving relative order
// within each partition.
func Classify(sources []SourceRecord) Partition {
	var p Partition
	for _, s := range sources {
		switch s.SourceType {
		case SourceCompleteHistory, SourceOccupationalCertificate:
			p.HighPriority = append(p.HighPriority, s)
		default:
			p.LowPriority = append(p.LowPriority, s)
		}
	}
	return p
}

// ByRecency returns a copy of records ordered oldest first, so reverse
// iteration visits the most recent document first. Records without a
// parseable evaluation date sort before dated ones, keeping input order
// among themselves.
func ByRecency(records []SourceRecord) []SourceRecord {
	out := make([]SourceRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		ti, oki := ParseDate(out[i].EvaluationDate)
		tj, okj := ParseDate(out[j].EvaluationDate)
		if oki != okj {
			return !oki // undated first
		}
		if !oki {
			return false
		}
		return ti.Before(tj)
	})
	return out
}
