package phpscan

import "sort"

// Range is a half-open byte span [Start, End).
type Range struct {
	Start int
	End   int
}

// Ranges is a sorted set of disjoint ranges. Build it with Merge.
type Ranges []Range

// Merge sorts rs and coalesces overlapping or touching ranges. Empty ranges
// are dropped. The input slice is not modified.
func Merge(rs []Range) Ranges {
	sorted := make([]Range, 0, len(rs))
	for _, r := range rs {
		if r.End > r.Start {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := Ranges{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Union merges several range sets into one.
func Union(sets ...Ranges) Ranges {
	var all []Range
	for _, s := range sets {
		all = append(all, s...)
	}
	return Merge(all)
}

// Contains reports whether offset falls inside any range.
func (rs Ranges) Contains(offset int) bool {
	i := sort.Search(len(rs), func(i int) bool { return rs[i].End > offset })
	return i < len(rs) && rs[i].Start <= offset
}
