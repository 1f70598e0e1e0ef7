package fiber

import "sort"

// Condense merges possibly-overlapping intervals into the minimal set of
// disjoint intervals covering the same parameter range. Intervals are
// sorted by Lower and a pair merges when a.Upper >= b.Lower; the merged
// bounds keep the contact point of whichever original bound was more
// extreme. Empty intervals are dropped and crossing bookkeeping is not
// carried over.
func Condense(intervals []Interval) []Interval {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.IsEmpty() {
			continue
		}
		sorted = append(sorted, Interval{
			Lower:        iv.Lower,
			Upper:        iv.Upper,
			LowerContact: iv.LowerContact,
			UpperContact: iv.UpperContact,
			set:          true,
		})
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Lower < sorted[b].Lower })

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if last.Upper >= iv.Lower {
			if iv.Upper > last.Upper {
				last.Upper = iv.Upper
				last.UpperContact = iv.UpperContact
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}
