package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	in := `isolate,organism,country,collection_date
tax1,Arabidopsis thaliana,Germany,2019-03-01
tax2,Arabidopsis lyrata,Austria,
`
	tbl, err := Parse(strings.NewReader(in), "isolate")
	require.NoError(t, err)

	assert.Equal(t, []string{"tax1", "tax2"}, tbl.Taxa())
	assert.Equal(t, []string{"organism", "country", "collection_date"}, tbl.Columns)

	row, ok := tbl.Row("tax1")
	require.True(t, ok)
	assert.Equal(t, "Arabidopsis thaliana", row["organism"])
	assert.Equal(t, "Germany", row["country"])
	assert.Equal(t, "tax1", row["isolate"], "name column is kept as a qualifier")

	row, ok = tbl.Row("tax2")
	require.True(t, ok)
	_, hasDate := row["collection_date"]
	assert.False(t, hasDate, "empty values are dropped")

	_, ok = tbl.Row("tax3")
	assert.False(t, ok)
}

func TestParseDefaultNameColumn(t *testing.T) {
	in := "isolate,organism\nA,X\n"
	tbl, err := Parse(strings.NewReader(in), "")
	require.NoError(t, err)
	assert.Equal(t, "isolate", tbl.NameColumn)
}

func TestParseCustomNameColumn(t *testing.T) {
	in := "specimen_voucher,organism\nV-17,Quercus robur\n"
	tbl, err := Parse(strings.NewReader(in), "specimen_voucher")
	require.NoError(t, err)

	row, ok := tbl.Row("V-17")
	require.True(t, ok)
	assert.Equal(t, "Quercus robur", row["organism"])
	assert.Equal(t, []string{"organism"}, tbl.Columns)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty file",
			in:   "",
			want: "metadata file is empty",
		},
		{
			name: "unknown column",
			in:   "isolate,flavour\nA,sweet\n",
			want: `column "flavour" is not a recognized source qualifier`,
		},
		{
			name: "missing name column",
			in:   "organism,country\nX,Y\n",
			want: `no "isolate" column`,
		},
		{
			name: "duplicate taxon",
			in:   "isolate,organism\nA,X\nA,Y\n",
			want: `repeats taxon "A"`,
		},
		{
			name: "empty taxon value",
			in:   "isolate,organism\n,X\n",
			want: `empty "isolate" value`,
		},
		{
			name: "no data rows",
			in:   "isolate,organism\n",
			want: "no data rows",
		},
		{
			name: "duplicate name column",
			in:   "isolate,isolate\nA,B\n",
			want: "appears twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.in), "isolate")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseRaggedRow(t *testing.T) {
	in := "isolate,organism\nA,X,extra\n"
	_, err := Parse(strings.NewReader(in), "isolate")
	assert.Error(t, err)
}
