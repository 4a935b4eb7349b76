package flatfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Yanjo96/annonex2embl/internal/annotate"
)

// FormatLocation renders segments in EMBL/GenBank location syntax. Segments
// are 0-based half-open; output positions are 1-based inclusive. Multiple
// segments join, reverse-strand locations wrap in complement() with the
// ranges kept in ascending sequence order.
func FormatLocation(segments []annotate.Segment, strand annotate.Strand) string {
	if len(segments) == 0 {
		return ""
	}
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = formatRange(s)
	}
	loc := parts[0]
	if len(parts) > 1 {
		loc = "join(" + strings.Join(parts, ",") + ")"
	}
	if strand == annotate.Reverse {
		loc = "complement(" + loc + ")"
	}
	return loc
}

func formatRange(s annotate.Segment) string {
	start, end := s.Start+1, s.End
	if start == end {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d..%d", start, end)
}

// ParseLocation parses a location string produced by FormatLocation back
// into 0-based half-open segments and a strand.
func ParseLocation(loc string) ([]annotate.Segment, annotate.Strand, error) {
	strand := annotate.Forward
	s := strings.TrimSpace(loc)
	if inner, ok := unwrap(s, "complement"); ok {
		strand = annotate.Reverse
		s = inner
	}
	if inner, ok := unwrap(s, "join"); ok {
		s = inner
	}
	if s == "" {
		return nil, strand, fmt.Errorf("empty location %q", loc)
	}

	var segments []annotate.Segment
	prevEnd := 0
	for _, part := range strings.Split(s, ",") {
		seg, err := parseRange(strings.TrimSpace(part))
		if err != nil {
			return nil, strand, fmt.Errorf("location %q: %w", loc, err)
		}
		if seg.Start < prevEnd {
			return nil, strand, fmt.Errorf("location %q: ranges out of order", loc)
		}
		segments = append(segments, seg)
		prevEnd = seg.End
	}
	return segments, strand, nil
}

func unwrap(s, op string) (string, bool) {
	if strings.HasPrefix(s, op+"(") && strings.HasSuffix(s, ")") {
		return s[len(op)+1 : len(s)-1], true
	}
	return s, false
}

func parseRange(part string) (annotate.Segment, error) {
	first, second, ranged := strings.Cut(part, "..")
	start, err := strconv.Atoi(first)
	if err != nil {
		return annotate.Segment{}, fmt.Errorf("bad position %q", first)
	}
	end := start
	if ranged {
		end, err = strconv.Atoi(second)
		if err != nil {
			return annotate.Segment{}, fmt.Errorf("bad position %q", second)
		}
	}
	if start < 1 || end < start {
		return annotate.Segment{}, fmt.Errorf("bad range %q", part)
	}
	return annotate.Segment{Start: start - 1, End: end}, nil
}
