package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Yanjo96/annonex2embl/internal/annotate"
)

const (
	maxWidth     = 80
	featureWidth = maxWidth - len(ftContinuation)

	// Feature lines carry a 21-column prefix; locations and qualifiers
	// start at column 22.
	ftContinuation = "FT                   "
)

// Options hold the record fields that are not derived from the input data.
type Options struct {
	Topology string    // linear or circular
	Division string    // taxonomic division code, e.g. PLN
	MolType  string    // molecule type on the ID line and source feature
	Authors  string    // reference authors, optional
	Date     time.Time // submission date on the RL line
}

func (o *Options) setDefaults() {
	if o.Topology == "" {
		o.Topology = "linear"
	}
	if o.Division == "" {
		o.Division = "XXX"
	}
	if o.MolType == "" {
		o.MolType = DefaultMolType
	}
	if o.Date.IsZero() {
		o.Date = time.Now()
	}
}

// Writer writes EMBL flatfile records suitable for ENA submission. Fields
// the archive assigns on acceptance, such as the accession number, are
// written as XXX placeholders.
type Writer struct {
	w    *bufio.Writer
	opts Options
}

// NewWriter creates an EMBL writer. Zero-value options get defaults.
func NewWriter(w io.Writer, opts Options) *Writer {
	opts.setDefaults()
	return &Writer{w: bufio.NewWriter(w), opts: opts}
}

// WriteRecord writes one record as a complete EMBL entry.
func (ew *Writer) WriteRecord(rec *annotate.Record) error {
	organism := rec.Source["organism"]
	if organism == "" {
		organism = rec.Taxon
	}
	seqLen := len(rec.Sequence)

	ew.line("ID   XXX; XXX; %s; %s; XXX; %s; %d BP.", ew.opts.Topology, ew.opts.MolType, ew.opts.Division, seqLen)
	ew.line("XX")
	ew.line("AC   XXX;")
	ew.line("XX")
	ew.line("DE   %s, partial sequence.", organism)
	ew.line("XX")
	ew.line("OS   %s", organism)
	ew.line("OC   .")
	ew.line("XX")
	ew.line("RN   [1]")
	ew.line("RP   1-%d", seqLen)
	if ew.opts.Authors != "" {
		ew.line("RA   %s;", ew.opts.Authors)
	}
	ew.line("RT   ;")
	ew.line("RL   Submitted (%s) to the INSDC.", submissionDate(ew.opts.Date))
	ew.line("XX")
	ew.line("FH   Key             Location/Qualifiers")
	ew.line("FH")
	for _, f := range BuildFeatures(rec, ew.opts.MolType) {
		ew.writeFeature(f)
	}
	ew.line("XX")
	ew.writeSequence(rec.Sequence)
	ew.line("//")
	return ew.w.Flush()
}

// Flush flushes any buffered output.
func (ew *Writer) Flush() error {
	return ew.w.Flush()
}

func (ew *Writer) line(format string, args ...any) {
	fmt.Fprintf(ew.w, format+"\n", args...)
}

func (ew *Writer) writeFeature(f Feature) {
	for i, ln := range wrapLocation(f.Location, featureWidth) {
		if i == 0 {
			ew.line("FT   %-16s%s", f.Key, ln)
		} else {
			ew.line("%s%s", ftContinuation, ln)
		}
	}
	for _, q := range f.Qualifiers {
		for _, ln := range wrapToken(renderQualifier(q), featureWidth) {
			ew.line("%s%s", ftContinuation, ln)
		}
	}
}

// writeSequence emits the SQ header with base counts and the sequence in
// lines of six 10-nucleotide blocks, the cumulative count right-aligned to
// column 80.
func (ew *Writer) writeSequence(seq string) {
	a, c, g, t := baseCounts(seq)
	other := len(seq) - a - c - g - t
	ew.line("SQ   Sequence %d BP; %d A; %d C; %d G; %d T; %d other;", len(seq), a, c, g, t, other)

	data := strings.ToLower(seq)
	for pos := 0; pos < len(data); pos += 60 {
		var b strings.Builder
		b.WriteString("    ")
		for block := 0; block < 6; block++ {
			start := pos + block*10
			chunk := ""
			if start < len(data) {
				end := start + 10
				if end > len(data) {
					end = len(data)
				}
				chunk = data[start:end]
			}
			fmt.Fprintf(&b, " %-10s", chunk)
		}
		end := pos + 60
		if end > len(data) {
			end = len(data)
		}
		ew.line("%s%10d", b.String(), end)
	}
}

func baseCounts(seq string) (a, c, g, t int) {
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'a':
			a++
		case 'C', 'c':
			c++
		case 'G', 'g':
			g++
		case 'T', 't':
			t++
		}
	}
	return a, c, g, t
}

// submissionDate renders a date the way the archives expect, e.g. 25-AUG-2026.
func submissionDate(t time.Time) string {
	return strings.ToUpper(t.Format("02-Jan-2006"))
}
