package annotate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChecker(t *testing.T, tableID int) *Checker {
	t.Helper()
	table, err := TableByID(tableID)
	require.NoError(t, err)
	return NewChecker(table)
}

func TestCheckTerminalStopConsumed(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS_forward", "matK", KindCDS, Forward)

	res, err := c.Check("tax1", cds, segs(0, 9), "ATGAAATAG")
	require.NoError(t, err)

	assert.Equal(t, "MK", res.AminoAcids)
	assert.Equal(t, 3, res.StopCodon)
	assert.False(t, res.Truncated)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "tax1", res.Taxon)
	assert.Equal(t, "matK_CDS_forward", res.Charset)
}

func TestCheckInternalStopTruncates(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS_forward", "matK", KindCDS, Forward)

	res, err := c.Check("tax1", cds, segs(0, 9), "ATGTAGCTT")
	require.NoError(t, err)

	assert.Equal(t, "M", res.AminoAcids)
	assert.Equal(t, 2, res.StopCodon)
	assert.True(t, res.Truncated)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "internal stop codon at codon 2")
}

func TestCheckNoStopWarns(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS", "matK", KindCDS, Forward)

	res, err := c.Check("tax1", cds, segs(0, 6), "ATGAAA")
	require.NoError(t, err)

	assert.Equal(t, "MK", res.AminoAcids)
	assert.Equal(t, 0, res.StopCodon)
	assert.False(t, res.Truncated)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no stop codon found")
}

func TestCheckReverseStrand(t *testing.T) {
	c := newChecker(t, 1)

	// The alignment carries the reverse complement of the coding strand.
	coding := "ATGAAATAG"
	aligned := ReverseComplement(coding)

	rev := cset("matK_CDS_reverse", "matK", KindCDS, Reverse)
	res, err := c.Check("tax1", rev, segs(0, 9), aligned)
	require.NoError(t, err)

	assert.Equal(t, "MK", res.AminoAcids)
	assert.Equal(t, 3, res.StopCodon)
	assert.False(t, res.Truncated)
}

func TestCheckStrandSymmetry(t *testing.T) {
	c := newChecker(t, 1)
	raw := "CTATTTCATGGG"

	rev := cset("x_CDS_reverse", "x", KindCDS, Reverse)
	fromReverse, err := c.Check("tax1", rev, segs(0, 12), raw)
	require.NoError(t, err)

	fwd := cset("x_CDS_forward", "x", KindCDS, Forward)
	fromForward, err := c.Check("tax1", fwd, segs(0, 12), ReverseComplement(raw))
	require.NoError(t, err)

	assert.Equal(t, fromForward.AminoAcids, fromReverse.AminoAcids)
	assert.Equal(t, fromForward.StopCodon, fromReverse.StopCodon)
	assert.Equal(t, fromForward.Truncated, fromReverse.Truncated)
}

func TestCheckJoinedSegments(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("rps12_CDS", "rps12", KindCDS, Forward)

	// ATG from the first segment, AAATAG from the second.
	res, err := c.Check("tax1", cds, segs(0, 3, 6, 12), "ATGCCCAAATAG")
	require.NoError(t, err)

	assert.Equal(t, "MK", res.AminoAcids)
	assert.Equal(t, 3, res.StopCodon)
}

func TestCheckReverseJoinedSegments(t *testing.T) {
	c := newChecker(t, 1)

	// Segments concatenate in alignment order first; the whole joined
	// string is reverse complemented, not each segment.
	coding := "ATGAAATAG"
	aligned := ReverseComplement(coding) // CTATTTCAT
	rev := cset("x_CDS_reverse", "x", KindCDS, Reverse)

	res, err := c.Check("tax1", rev, segs(0, 4, 4, 9), aligned)
	require.NoError(t, err)
	assert.Equal(t, "MK", res.AminoAcids)
}

func TestCheckGapCodons(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS", "matK", KindCDS, Forward)

	t.Run("full gap codon", func(t *testing.T) {
		res, err := c.Check("tax1", cds, segs(0, 9), "ATG---TAG")
		require.NoError(t, err)
		assert.Equal(t, "MX", res.AminoAcids)
		assert.Equal(t, 3, res.StopCodon)
		assert.False(t, res.Truncated)
	})

	t.Run("partial gap codon", func(t *testing.T) {
		res, err := c.Check("tax1", cds, segs(0, 9), "ATGA--TAG")
		require.NoError(t, err)
		assert.Equal(t, "MX", res.AminoAcids)
	})

	t.Run("ambiguity codon", func(t *testing.T) {
		res, err := c.Check("tax1", cds, segs(0, 9), "ATGANNTAG")
		require.NoError(t, err)
		assert.Equal(t, "MX", res.AminoAcids)
	})
}

func TestCheckPhaseError(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS", "matK", KindCDS, Forward)

	_, err := c.Check("tax1", cds, segs(0, 8), "ATGAAATA")
	require.Error(t, err)

	var perr *CodonPhaseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 8, perr.Length)
	assert.Contains(t, err.Error(), "not a multiple of 3")
}

func TestCheckInvalidBase(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS", "matK", KindCDS, Forward)

	_, err := c.Check("tax1", cds, segs(0, 9), "ATG!AATAG")
	require.Error(t, err)

	var berr *InvalidBaseError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, byte('!'), berr.Base)
	assert.Equal(t, 4, berr.Position)
}

func TestCheckSegmentOutOfBounds(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS", "matK", KindCDS, Forward)

	_, err := c.Check("tax1", cds, segs(0, 99), "ATGAAATAG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside sequence length")
}

func TestCheckTruncatedSpanIsStable(t *testing.T) {
	c := newChecker(t, 1)
	cds := cset("matK_CDS", "matK", KindCDS, Forward)

	first, err := c.Check("tax1", cds, segs(0, 9), "ATGTAGCTT")
	require.NoError(t, err)
	require.True(t, first.Truncated)

	// Re-checking just the span that produced amino acids yields the same
	// translation and no further truncation.
	span := (first.StopCodon - 1) * 3
	second, err := c.Check("tax1", cds, segs(0, span), "ATGTAGCTT")
	require.NoError(t, err)

	assert.Equal(t, first.AminoAcids, second.AminoAcids)
	assert.False(t, second.Truncated)
	assert.Equal(t, 0, second.StopCodon)
}

func TestCheckPlastidTable(t *testing.T) {
	c := newChecker(t, 11)
	cds := cset("matK_CDS", "matK", KindCDS, Forward)

	res, err := c.Check("tax1", cds, segs(0, 9), "ATGAAATGA")
	require.NoError(t, err)
	assert.Equal(t, "MK", res.AminoAcids)
	assert.Equal(t, 3, res.StopCodon)
}
