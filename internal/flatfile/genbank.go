package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Yanjo96/annonex2embl/internal/annotate"
)

// GenBank feature lines carry the same 21-column prefix as EMBL ones, all
// spaces.
const gbContinuation = "                     "

// GenBankWriter writes GenBank-format records mirroring the EMBL output.
type GenBankWriter struct {
	w    *bufio.Writer
	opts Options
}

// NewGenBankWriter creates a GenBank writer. Zero-value options get defaults.
func NewGenBankWriter(w io.Writer, opts Options) *GenBankWriter {
	opts.setDefaults()
	return &GenBankWriter{w: bufio.NewWriter(w), opts: opts}
}

// WriteRecord writes one record as a complete GenBank entry.
func (gw *GenBankWriter) WriteRecord(rec *annotate.Record) error {
	organism := rec.Source["organism"]
	if organism == "" {
		organism = rec.Taxon
	}
	locus := strings.ReplaceAll(rec.Taxon, " ", "_")

	gw.line("LOCUS       %-16s %11d bp    %-7s %-8s %s %s",
		locus, len(rec.Sequence), "DNA", gw.opts.Topology, gw.opts.Division, submissionDate(gw.opts.Date))
	gw.line("DEFINITION  %s, partial sequence.", organism)
	gw.line("ACCESSION   XXX")
	gw.line("VERSION     XXX")
	gw.line("KEYWORDS    .")
	gw.line("SOURCE      %s", organism)
	gw.line("  ORGANISM  %s", organism)
	gw.line("            .")
	gw.line("FEATURES             Location/Qualifiers")
	for _, f := range BuildFeatures(rec, gw.opts.MolType) {
		gw.writeFeature(f)
	}
	gw.writeSequence(rec.Sequence)
	gw.line("//")
	return gw.w.Flush()
}

// Flush flushes any buffered output.
func (gw *GenBankWriter) Flush() error {
	return gw.w.Flush()
}

func (gw *GenBankWriter) line(format string, args ...any) {
	fmt.Fprintf(gw.w, format+"\n", args...)
}

func (gw *GenBankWriter) writeFeature(f Feature) {
	for i, ln := range wrapLocation(f.Location, featureWidth) {
		if i == 0 {
			gw.line("     %-16s%s", f.Key, ln)
		} else {
			gw.line("%s%s", gbContinuation, ln)
		}
	}
	for _, q := range f.Qualifiers {
		for _, ln := range wrapToken(renderQualifier(q), featureWidth) {
			gw.line("%s%s", gbContinuation, ln)
		}
	}
}

// writeSequence emits the ORIGIN block: six 10-nucleotide blocks per line,
// led by the 1-based position of the first one.
func (gw *GenBankWriter) writeSequence(seq string) {
	gw.line("ORIGIN")
	data := strings.ToLower(seq)
	for pos := 0; pos < len(data); pos += 60 {
		var b strings.Builder
		fmt.Fprintf(&b, "%9d", pos+1)
		for block := 0; block < 6; block++ {
			start := pos + block*10
			if start >= len(data) {
				break
			}
			end := start + 10
			if end > len(data) {
				end = len(data)
			}
			b.WriteByte(' ')
			b.WriteString(data[start:end])
		}
		gw.line("%s", b.String())
	}
}
