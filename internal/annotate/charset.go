// Package annotate resolves NEXUS charset declarations into EMBL-ready
// feature annotations: classification, gene/CDS pairing, per-taxon
// coordinate shifting, and translation quality checks.
package annotate

import (
	"strings"

	"github.com/Yanjo96/annonex2embl/internal/nexus"
)

// Kind classifies a charset by the biological role its name declares.
type Kind int

const (
	KindGene Kind = iota
	KindCDS
	KindExon
	KindIntron
	KindIGS
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindGene:
		return "gene"
	case KindCDS:
		return "cds"
	case KindExon:
		return "exon"
	case KindIntron:
		return "intron"
	case KindIGS:
		return "igs"
	default:
		return "other"
	}
}

// Strand is the DNA strand a region is read from.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

func (s Strand) String() string {
	if s == Reverse {
		return "reverse"
	}
	return "forward"
}

// Segment is a 0-based half-open interval in alignment coordinates.
type Segment struct {
	Start int
	End   int
}

// Len returns the number of positions the segment covers.
func (s Segment) Len() int {
	return s.End - s.Start
}

// Charset is a classified alignment region. Built once per run and shared
// read-only across taxa; per-taxon coordinates live elsewhere.
type Charset struct {
	Name     string
	Base     string // name minus kind and strand suffixes
	Kind     Kind
	Label    string // the kind token as declared, e.g. "CDS" or "rRNA"
	Strand   Strand
	Segments []Segment // ascending, non-overlapping
}

// Length returns the total declared span in alignment positions.
func (c *Charset) Length() int {
	n := 0
	for _, s := range c.Segments {
		n += s.Len()
	}
	return n
}

// IsCoding reports whether the charset is subject to translation checking.
func (c *Charset) IsCoding() bool {
	return c.Kind == KindCDS
}

// Convention is the charset naming convention, injected at classification
// time so runs with different conventions cannot contaminate each other.
type Convention struct {
	Kinds   map[string]Kind // lowercase kind token to kind
	Forward string          // lowercase strand tokens
	Reverse string
}

// DefaultConvention matches names like matK_gene_forward, trnK_intron,
// trnL-trnF_IGS or rrn16_rRNA. Strand defaults to forward when no strand
// suffix is present.
func DefaultConvention() Convention {
	return Convention{
		Kinds: map[string]Kind{
			"gene":   KindGene,
			"cds":    KindCDS,
			"exon":   KindExon,
			"intron": KindIntron,
			"igs":    KindIGS,
			"rrna":   KindOther,
			"trna":   KindOther,
			"misc":   KindOther,
		},
		Forward: "forward",
		Reverse: "reverse",
	}
}

// Classify turns raw charset declarations into Charsets, preserving
// declaration order. It rejects unrecognized suffixes, ranges outside the
// alignment, and overlapping or descending ranges. Codon phase is not
// checked against the declared span; it depends on each taxon's gaps and
// is checked after degapping.
func Classify(decls []nexus.CharsetDecl, alignLen int, conv Convention) ([]*Charset, error) {
	charsets := make([]*Charset, 0, len(decls))
	for _, d := range decls {
		cs, err := classify(d, alignLen, conv)
		if err != nil {
			return nil, err
		}
		charsets = append(charsets, cs)
	}
	return charsets, nil
}

func classify(d nexus.CharsetDecl, alignLen int, conv Convention) (*Charset, error) {
	rest := d.Name
	strand := Forward

	tok, before, ok := trimLastToken(rest)
	if ok {
		switch strings.ToLower(tok) {
		case conv.Reverse:
			strand = Reverse
			rest = before
		case conv.Forward:
			rest = before
		}
	}

	tok, before, ok = trimLastToken(rest)
	if !ok {
		return nil, &UnknownSuffixError{Charset: d.Name}
	}
	kind, known := conv.Kinds[strings.ToLower(tok)]
	if !known || before == "" {
		return nil, &UnknownSuffixError{Charset: d.Name}
	}

	segments, err := normalizeRanges(d, alignLen)
	if err != nil {
		return nil, err
	}

	return &Charset{
		Name:     d.Name,
		Base:     before,
		Kind:     kind,
		Label:    tok,
		Strand:   strand,
		Segments: segments,
	}, nil
}

// trimLastToken splits off the text after the last underscore.
func trimLastToken(s string) (token, before string, ok bool) {
	i := strings.LastIndexByte(s, '_')
	if i < 0 {
		return "", s, false
	}
	return s[i+1:], s[:i], true
}

// normalizeRanges converts declared 1-based inclusive ranges to 0-based
// half-open segments, merging ranges that touch.
func normalizeRanges(d nexus.CharsetDecl, alignLen int) ([]Segment, error) {
	var segments []Segment
	prevEnd := 0
	for _, r := range d.Ranges {
		if r.Start < 1 || r.End > alignLen {
			return nil, &BoundsError{Charset: d.Name, Start: r.Start, End: r.End, Length: alignLen}
		}
		if r.End < r.Start {
			return nil, &RangeOrderError{Charset: d.Name}
		}
		start, end := r.Start-1, r.End
		if start < prevEnd {
			return nil, &RangeOrderError{Charset: d.Name}
		}
		if start == prevEnd && len(segments) > 0 {
			segments[len(segments)-1].End = end
		} else {
			segments = append(segments, Segment{Start: start, End: end})
		}
		prevEnd = end
	}
	return segments, nil
}
