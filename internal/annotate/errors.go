package annotate

import "fmt"

// Structural errors abort the whole run and carry the offending charset
// name. Per-region errors during conversion abort only the affected taxon
// and are wrapped in a TaxonError.

// UnknownSuffixError reports a charset whose name does not follow the
// <base>_<kind>[_<strand>] convention.
type UnknownSuffixError struct {
	Charset string
}

func (e *UnknownSuffixError) Error() string {
	return fmt.Sprintf("charset %q has an unrecognized kind suffix (expected <base>_<kind>[_<strand>])", e.Charset)
}

// BoundsError reports a declared range outside the alignment.
type BoundsError struct {
	Charset string
	Start   int // 1-based, as declared
	End     int
	Length  int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("charset %q declares range %d-%d outside alignment length %d", e.Charset, e.Start, e.End, e.Length)
}

// RangeOrderError reports ranges that are not ascending and non-overlapping.
type RangeOrderError struct {
	Charset string
}

func (e *RangeOrderError) Error() string {
	return fmt.Sprintf("charset %q declares overlapping or out-of-order ranges", e.Charset)
}

// PairingError reports a gene or exon charset with no coding counterpart.
type PairingError struct {
	Charset string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("charset %s has no accompanying CDS charset", e.Charset)
}

// DuplicateRoleError reports two charsets claiming the same role (gene/exon
// or CDS) for one base name and strand.
type DuplicateRoleError struct {
	Charset  string
	Existing string
}

func (e *DuplicateRoleError) Error() string {
	return fmt.Sprintf("charset %q duplicates the role of charset %q", e.Charset, e.Existing)
}

// CodonPhaseError reports a coding region whose per-taxon nucleotide count
// is not a whole number of codons.
type CodonPhaseError struct {
	Charset string
	Length  int
}

func (e *CodonPhaseError) Error() string {
	return fmt.Sprintf("coding region %s has %d nucleotides after gap removal, not a multiple of 3", e.Charset, e.Length)
}

// InvalidBaseError reports a character that is not a nucleotide, ambiguity
// code, or gap inside a coding region.
type InvalidBaseError struct {
	Charset  string
	Base     byte
	Position int // 1-based within the extracted coding sequence
}

func (e *InvalidBaseError) Error() string {
	return fmt.Sprintf("coding region %s contains unrecognized character %q at position %d", e.Charset, e.Base, e.Position)
}

// TaxonError wraps an error that aborted a single taxon's conversion.
type TaxonError struct {
	Taxon string
	Err   error
}

func (e *TaxonError) Error() string {
	return fmt.Sprintf("taxon %q: %v", e.Taxon, e.Err)
}

func (e *TaxonError) Unwrap() error {
	return e.Err
}
