// Package flatfile renders converted records as EMBL and GenBank flatfiles.
package flatfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Yanjo96/annonex2embl/internal/annotate"
)

// DefaultMolType is the source-feature molecule type used when the metadata
// table carries no mol_type column.
const DefaultMolType = "genomic DNA"

// Qualifier is a single /name=value pair on a feature. An empty value
// renders as a bare /name.
type Qualifier struct {
	Name  string
	Value string
}

// Feature is one entry of a flatfile feature table.
type Feature struct {
	Key        string
	Location   string
	Qualifiers []Qualifier
}

func (f *Feature) add(name, value string) {
	f.Qualifiers = append(f.Qualifiers, Qualifier{Name: name, Value: value})
}

// BuildFeatures renders a record as an ordered feature table: a source
// feature spanning the whole sequence followed by one feature per annotated
// region. molType overrides the source-feature default when the metadata has
// no mol_type value.
func BuildFeatures(rec *annotate.Record, molType string) []Feature {
	features := make([]Feature, 0, len(rec.Regions)+1)
	features = append(features, sourceFeature(rec, molType))
	for _, region := range rec.Regions {
		features = append(features, regionFeature(rec, region))
	}
	return features
}

// sourceFeature carries the metadata qualifiers: organism and mol_type
// first, the rest in sorted order so output is stable across runs.
func sourceFeature(rec *annotate.Record, molType string) Feature {
	f := Feature{Key: "source", Location: fmt.Sprintf("1..%d", len(rec.Sequence))}

	if org := rec.Source["organism"]; org != "" {
		f.add("organism", org)
	}
	mt := rec.Source["mol_type"]
	if mt == "" {
		mt = molType
	}
	if mt == "" {
		mt = DefaultMolType
	}
	f.add("mol_type", mt)

	rest := make([]string, 0, len(rec.Source))
	for name := range rec.Source {
		if name == "organism" || name == "mol_type" {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)
	for _, name := range rest {
		f.add(name, rec.Source[name])
	}
	return f
}

func regionFeature(rec *annotate.Record, region *annotate.RegionAnnotation) Feature {
	cs := region.Charset
	f := Feature{
		Key:      featureKey(cs.Kind),
		Location: FormatLocation(region.Segments, cs.Strand),
	}

	switch cs.Kind {
	case annotate.KindGene:
		f.add("gene", cs.Base)
		if region.Product != "" {
			f.add("note", region.Product)
		}
	case annotate.KindCDS:
		f.add("gene", cs.Base)
		if region.Product != "" {
			f.add("product", region.Product)
		}
		f.add("codon_start", "1")
		f.add("transl_table", fmt.Sprintf("%d", rec.TranslTable))
	case annotate.KindExon, annotate.KindIntron:
		f.add("gene", cs.Base)
	case annotate.KindIGS:
		f.add("note", cs.Base+" intergenic spacer")
	default:
		f.add("note", cs.Base+" "+cs.Label)
	}

	if tr := region.Translation; tr != nil {
		for _, w := range tr.Warnings {
			f.add("note", w)
		}
	}
	for _, n := range region.Notes {
		f.add("note", n)
	}
	if tr := region.Translation; tr != nil && tr.AminoAcids != "" {
		f.add("translation", tr.AminoAcids)
	}
	return f
}

func featureKey(k annotate.Kind) string {
	switch k {
	case annotate.KindGene:
		return "gene"
	case annotate.KindCDS:
		return "CDS"
	case annotate.KindExon:
		return "exon"
	case annotate.KindIntron:
		return "intron"
	default:
		return "misc_feature"
	}
}

// unquotedQualifiers take numeric values and render without quotes.
var unquotedQualifiers = map[string]bool{
	"codon_start":  true,
	"transl_table": true,
	"number":       true,
}

func renderQualifier(q Qualifier) string {
	if q.Value == "" {
		return "/" + q.Name
	}
	if unquotedQualifiers[q.Name] {
		return "/" + q.Name + "=" + q.Value
	}
	return "/" + q.Name + `="` + q.Value + `"`
}

// wrapToken splits a rendered qualifier over lines of at most width
// characters, breaking at spaces where possible. Unbroken values such as
// translations split at the width boundary.
func wrapToken(token string, width int) []string {
	var lines []string
	for len(token) > width {
		cut := strings.LastIndexByte(token[:width+1], ' ')
		if cut <= 0 {
			lines = append(lines, token[:width])
			token = token[width:]
			continue
		}
		lines = append(lines, token[:cut])
		token = token[cut+1:]
	}
	return append(lines, token)
}

// wrapLocation splits a location over lines, breaking after commas. A
// location without commas is returned whole regardless of width.
func wrapLocation(loc string, width int) []string {
	var lines []string
	for len(loc) > width {
		cut := strings.LastIndexByte(loc[:width], ',')
		if cut < 0 {
			break
		}
		lines = append(lines, loc[:cut+1])
		loc = loc[cut+1:]
	}
	return append(lines, loc)
}
