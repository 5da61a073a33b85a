package edit

// RecordPolicy decides which changes of a long trace edit are written to the
// changelog. The first MaxFull changes are always recorded; past that, only
// every SampleEvery-th change is kept and marked as sampled.
type RecordPolicy struct {
	MaxFull     int
	SampleEvery int
}

// DefaultRecordPolicy keeps changelogs bounded on multi-million trace files
// while staying complete for everyday jobs.
var DefaultRecordPolicy = RecordPolicy{MaxFull: 10000, SampleEvery: 100}

// Decide reports whether the n-th change (0-based) should be recorded, and
// whether the record must be flagged as a sample.
func (p RecordPolicy) Decide(n int) (record, sampled bool) {
	if p.MaxFull <= 0 && p.SampleEvery <= 0 {
		return true, false
	}
	if n < p.MaxFull {
		return true, false
	}
	if p.SampleEvery > 0 && (n-p.MaxFull)%p.SampleEvery == 0 {
		return true, true
	}
	return false, false
}
