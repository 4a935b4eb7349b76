package annotate

// Degap removes gap columns from one taxon's aligned sequence and shifts
// the given charsets' segments into the degapped coordinate system.
// Segments that lose every position to gaps disappear; segments that become
// adjacent merge. The returned segment slices are fresh per call, so the
// shared Charsets stay untouched across taxa.
func Degap(seq string, charsets []*Charset) (string, [][]Segment) {
	// prefix[i] holds the number of gaps in seq[:i].
	prefix := make([]int, len(seq)+1)
	degapped := make([]byte, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		prefix[i+1] = prefix[i]
		if seq[i] == GapSymbol {
			prefix[i+1]++
		} else {
			degapped = append(degapped, seq[i])
		}
	}

	shifted := make([][]Segment, len(charsets))
	for ci, cs := range charsets {
		var segs []Segment
		for _, s := range cs.Segments {
			start := s.Start - prefix[s.Start]
			end := s.End - prefix[s.End]
			if end <= start {
				continue
			}
			if n := len(segs); n > 0 && segs[n-1].End == start {
				segs[n-1].End = end
				continue
			}
			segs = append(segs, Segment{Start: start, End: end})
		}
		shifted[ci] = segs
	}
	return string(degapped), shifted
}
