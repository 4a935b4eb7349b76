package annotate

import (
	"fmt"
	"strings"
)

// TranslationResult captures one coding region's translation for one taxon.
// Never mutated once built; consumed by the feature writer.
type TranslationResult struct {
	Taxon      string
	Charset    string
	AminoAcids string
	StopCodon  int // 1-based codon index of the first stop; 0 when absent
	Truncated  bool
	Warnings   []string
}

// Checker runs translation quality control for coding regions.
type Checker struct {
	table *CodeTable
}

// NewChecker creates a checker for the given genetic code table.
func NewChecker(table *CodeTable) *Checker {
	return &Checker{table: table}
}

// Table returns the genetic code table the checker translates with.
func (c *Checker) Table() *CodeTable {
	return c.table
}

// Check extracts the coding nucleotides at segments (per-taxon coordinates
// into seq), reverse-complements reverse-strand regions as a whole, and
// translates from the first nucleotide of the first segment. An internal
// stop truncates the translation with a warning; a stop in the final codon
// is expected and consumed; no stop at all is a warning. Gap-containing
// codons translate to 'X'.
func (c *Checker) Check(taxon string, cs *Charset, segments []Segment, seq string) (*TranslationResult, error) {
	for _, s := range segments {
		if s.Start < 0 || s.End < s.Start || s.End > len(seq) {
			return nil, fmt.Errorf("segment %d..%d of %s outside sequence length %d", s.Start, s.End, cs.Name, len(seq))
		}
	}

	sub := extract(seq, segments)
	if len(sub)%3 != 0 {
		return nil, &CodonPhaseError{Charset: cs.Name, Length: len(sub)}
	}
	for i := 0; i < len(sub); i++ {
		if !strings.ContainsRune(validBases, rune(sub[i])) {
			return nil, &InvalidBaseError{Charset: cs.Name, Base: sub[i], Position: i + 1}
		}
	}
	if cs.Strand == Reverse {
		sub = ReverseComplement(sub)
	}

	res := &TranslationResult{Taxon: taxon, Charset: cs.Name}
	n := len(sub) / 3
	var aa strings.Builder
	aa.Grow(n)
	for i := 0; i < n; i++ {
		sym := c.table.Translate(sub[i*3 : i*3+3])
		if sym != '*' {
			aa.WriteByte(sym)
			continue
		}
		res.StopCodon = i + 1
		if i < n-1 {
			res.Truncated = true
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("internal stop codon at codon %d of %d; translation truncated", i+1, n))
		}
		break
	}
	if res.StopCodon == 0 {
		res.Warnings = append(res.Warnings, "no stop codon found")
	}
	res.AminoAcids = aa.String()
	return res, nil
}

// extract concatenates the subsequences at segments, in segment order.
func extract(seq string, segments []Segment) string {
	var b strings.Builder
	n := 0
	for _, s := range segments {
		n += s.Len()
	}
	b.Grow(n)
	for _, s := range segments {
		b.WriteString(seq[s.Start:s.End])
	}
	return b.String()
}
