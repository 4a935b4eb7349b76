package annotate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yanjo96/annonex2embl/internal/nexus"
)

func decl(name string, positions ...int) nexus.CharsetDecl {
	d := nexus.CharsetDecl{Name: name}
	for i := 0; i+1 < len(positions); i += 2 {
		d.Ranges = append(d.Ranges, nexus.Range{Start: positions[i], End: positions[i+1]})
	}
	return d
}

func TestClassify(t *testing.T) {
	decls := []nexus.CharsetDecl{
		decl("matK_gene_forward", 1, 10),
		decl("matK_CDS_forward", 1, 9),
		decl("trnK_intron", 11, 40),
		decl("trnL-trnF_IGS_reverse", 41, 60),
		decl("rrn16_rRNA", 61, 80),
	}

	charsets, err := Classify(decls, 80, DefaultConvention())
	require.NoError(t, err)
	require.Len(t, charsets, 5)

	gene := charsets[0]
	assert.Equal(t, "matK_gene_forward", gene.Name)
	assert.Equal(t, "matK", gene.Base)
	assert.Equal(t, KindGene, gene.Kind)
	assert.Equal(t, Forward, gene.Strand)
	assert.Equal(t, []Segment{{Start: 0, End: 10}}, gene.Segments)

	cds := charsets[1]
	assert.Equal(t, KindCDS, cds.Kind)
	assert.True(t, cds.IsCoding())
	assert.Equal(t, 9, cds.Length())

	intron := charsets[2]
	assert.Equal(t, KindIntron, intron.Kind)
	assert.Equal(t, Forward, intron.Strand, "strand defaults to forward")
	assert.Equal(t, "trnK", intron.Base)

	igs := charsets[3]
	assert.Equal(t, KindIGS, igs.Kind)
	assert.Equal(t, Reverse, igs.Strand)
	assert.Equal(t, "trnL-trnF", igs.Base)

	other := charsets[4]
	assert.Equal(t, KindOther, other.Kind)
	assert.Equal(t, "rRNA", other.Label)
	assert.Equal(t, "rrn16", other.Base)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	charsets, err := Classify([]nexus.CharsetDecl{decl("psbA_Gene_REVERSE", 1, 6)}, 6, DefaultConvention())
	require.NoError(t, err)
	assert.Equal(t, KindGene, charsets[0].Kind)
	assert.Equal(t, Reverse, charsets[0].Strand)
	assert.Equal(t, "psbA", charsets[0].Base)
}

func TestClassifyMergesTouchingRanges(t *testing.T) {
	charsets, err := Classify([]nexus.CharsetDecl{decl("matK_CDS", 1, 9, 10, 12)}, 20, DefaultConvention())
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 0, End: 12}}, charsets[0].Segments)
}

func TestClassifyMultiSegment(t *testing.T) {
	charsets, err := Classify([]nexus.CharsetDecl{decl("rps12_CDS", 1, 6, 10, 12)}, 20, DefaultConvention())
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 0, End: 6}, {Start: 9, End: 12}}, charsets[0].Segments)
	assert.Equal(t, 9, charsets[0].Length())
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name string
		decl nexus.CharsetDecl
		want any
	}{
		{
			name: "no suffix at all",
			decl: decl("matK", 1, 10),
			want: &UnknownSuffixError{},
		},
		{
			name: "unknown kind token",
			decl: decl("matK_region", 1, 10),
			want: &UnknownSuffixError{},
		},
		{
			name: "empty base",
			decl: decl("_gene", 1, 10),
			want: &UnknownSuffixError{},
		},
		{
			name: "position zero",
			decl: decl("matK_gene", 0, 10),
			want: &BoundsError{},
		},
		{
			name: "end beyond alignment",
			decl: decl("matK_gene", 1, 99),
			want: &BoundsError{},
		},
		{
			name: "descending range",
			decl: decl("matK_gene", 10, 5),
			want: &RangeOrderError{},
		},
		{
			name: "overlapping ranges",
			decl: decl("matK_gene", 1, 10, 5, 20),
			want: &RangeOrderError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify([]nexus.CharsetDecl{tt.decl}, 20, DefaultConvention())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.decl.Name)

			switch tt.want.(type) {
			case *UnknownSuffixError:
				var e *UnknownSuffixError
				assert.True(t, errors.As(err, &e))
			case *BoundsError:
				var e *BoundsError
				assert.True(t, errors.As(err, &e))
			case *RangeOrderError:
				var e *RangeOrderError
				assert.True(t, errors.As(err, &e))
			}
		})
	}
}

// A CDS span whose declared length is not a whole number of codons still
// classifies. Phase depends on each taxon's gaps, so it is checked against
// the degapped sequence, not the declaration.
func TestClassifyCDSSpanNotCodonMultiple(t *testing.T) {
	decls := []nexus.CharsetDecl{
		decl("matK_gene_forward", 1, 10),
		decl("matK_CDS_forward", 1, 10),
	}
	charsets, err := Classify(decls, 10, DefaultConvention())
	require.NoError(t, err)
	require.Len(t, charsets, 2)
	assert.Equal(t, KindCDS, charsets[1].Kind)
	assert.Equal(t, 10, charsets[1].Length())
}
