package metrics

import "sync/atomic"

// CycleStats accumulates the outcome counters of one strategy run.
type CycleStats struct {
	Terms          atomic.Int64
	Fetched        atomic.Int64
	Absent         atomic.Int64
	Malformed      atomic.Int64
	MergeFailed    atomic.Int64
	ProductsMerged atomic.Int64
	Skipped        atomic.Int64
	Excluded       atomic.Int64
}

// Summary is a point-in-time copy of CycleStats.
type Summary struct {
	Terms          int64
	Fetched        int64
	Absent         int64
	Malformed      int64
	MergeFailed    int64
	ProductsMerged int64
	Skipped        int64
	Excluded       int64
}

func (s *CycleStats) Snapshot() Summary {
	return Summary{
		Terms:          s.Terms.Load(),
		Fetched:        s.Fetched.Load(),
		Absent:         s.Absent.Load(),
		Malformed:      s.Malformed.Load(),
		MergeFailed:    s.MergeFailed.Load(),
		ProductsMerged: s.ProductsMerged.Load(),
		Skipped:        s.Skipped.Load(),
		Excluded:       s.Excluded.Load(),
	}
}

// Add folds another summary into this one.
func (s Summary) Add(o Summary) Summary {
	return Summary{
		Terms:          s.Terms + o.Terms,
		Fetched:        s.Fetched + o.Fetched,
		Absent:         s.Absent + o.Absent,
		Malformed:      s.Malformed + o.Malformed,
		MergeFailed:    s.MergeFailed + o.MergeFailed,
		ProductsMerged: s.ProductsMerged + o.ProductsMerged,
		Skipped:        s.Skipped + o.Skipped,
		Excluded:       s.Excluded + o.Excluded,
	}
}
