// Package nexus parses annotated NEXUS alignments: a DATA or CHARACTERS
// block holding the sequence matrix and a SETS block holding charset
// declarations.
package nexus

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Range is a 1-based inclusive position range as declared in a SETS block.
type Range struct {
	Start int
	End   int
}

// CharsetDecl is a single charset statement with its ranges in declaration
// order. Range validation (bounds, ordering) happens downstream.
type CharsetDecl struct {
	Name   string
	Ranges []Range
}

// Alignment holds the decoded matrix. Taxa keep declaration order; all
// sequences are equal length, uppercase, with the missing symbol normalized
// to 'N' and the gap symbol normalized to '-'.
type Alignment struct {
	Taxa   []string
	Length int

	seqs map[string]string
}

// Sequence returns the aligned sequence for a taxon.
func (a *Alignment) Sequence(taxon string) (string, bool) {
	s, ok := a.seqs[taxon]
	return s, ok
}

// NumTaxa returns the number of taxa in the matrix.
func (a *Alignment) NumTaxa() int {
	return len(a.Taxa)
}

// File is a fully parsed NEXUS file.
type File struct {
	Alignment *Alignment
	Charsets  []CharsetDecl
}

// ParseError represents an error during NEXUS parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nexus parse error at line %d: %s", e.Line, e.Message)
}

// Nucleotide symbols accepted in the matrix after normalization: the IUPAC
// ambiguity alphabet plus the gap symbol.
const iupacNucleotides = "ACGTURYSWKMBDHVN-"

// ParseFile parses a NEXUS file from disk. Gzipped input is detected by
// magic bytes.
func ParseFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open nexus file: %w", err)
	}
	defer file.Close()

	buf := make([]byte, 2)
	if _, err := file.Read(buf); err != nil {
		return nil, fmt.Errorf("read nexus header: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("seek nexus file: %w", err)
	}

	if buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		return Parse(gz)
	}
	return Parse(file)
}

// Parse parses a NEXUS file from a reader.
func Parse(r io.Reader) (*File, error) {
	p := newParser(r)

	if err := p.expectMagic(); err != nil {
		return nil, err
	}

	f := &File{Alignment: &Alignment{seqs: make(map[string]string)}}
	var (
		block        string
		ntax, nchar  int
		gap          = byte('-')
		missing      = byte('?')
		charsetNames = make(map[string]bool)
	)

	for {
		stmt, err := p.nextStatement()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		words := stmtFields(stmt)
		if len(words) == 0 {
			continue
		}
		key := strings.ToUpper(words[0])

		switch key {
		case "BEGIN":
			if len(words) < 2 {
				return nil, p.errAt(stmt, "BEGIN without a block name")
			}
			block = strings.ToUpper(words[1])
			continue
		case "END", "ENDBLOCK":
			block = ""
			continue
		}

		switch block {
		case "DATA", "CHARACTERS":
			switch key {
			case "DIMENSIONS":
				var err error
				ntax, nchar, err = p.parseDimensions(stmt, words[1:])
				if err != nil {
					return nil, err
				}
			case "FORMAT":
				var err error
				gap, missing, err = p.parseFormat(stmt, words[1:])
				if err != nil {
					return nil, err
				}
			case "MATRIX":
				if err := p.parseMatrix(stmt, f.Alignment, gap, missing); err != nil {
					return nil, err
				}
			}
		case "SETS":
			if key == "CHARSET" {
				decl, err := p.parseCharset(stmt)
				if err != nil {
					return nil, err
				}
				if charsetNames[decl.Name] {
					return nil, p.errAt(stmt, fmt.Sprintf("duplicate charset %q", decl.Name))
				}
				charsetNames[decl.Name] = true
				f.Charsets = append(f.Charsets, decl)
			}
		}
	}

	a := f.Alignment
	if len(a.Taxa) == 0 {
		return nil, &ParseError{Line: p.line, Message: "no MATRIX block found"}
	}
	a.Length = len(a.seqs[a.Taxa[0]])
	for _, t := range a.Taxa {
		if len(a.seqs[t]) != a.Length {
			return nil, &ParseError{
				Line:    p.line,
				Message: fmt.Sprintf("taxon %q has %d characters, expected %d", t, len(a.seqs[t]), a.Length),
			}
		}
	}
	if ntax > 0 && ntax != len(a.Taxa) {
		return nil, &ParseError{
			Line:    p.line,
			Message: fmt.Sprintf("DIMENSIONS declares NTAX=%d but matrix has %d taxa", ntax, len(a.Taxa)),
		}
	}
	if nchar > 0 && nchar != a.Length {
		return nil, &ParseError{
			Line:    p.line,
			Message: fmt.Sprintf("DIMENSIONS declares NCHAR=%d but matrix has %d characters", nchar, a.Length),
		}
	}

	// Resolve '.' range ends (declared as the last alignment position).
	for i := range f.Charsets {
		for j := range f.Charsets[i].Ranges {
			if f.Charsets[i].Ranges[j].End == endOfAlignment {
				f.Charsets[i].Ranges[j].End = a.Length
			}
		}
	}

	return f, nil
}

// endOfAlignment marks a range end declared as "." before the alignment
// length is known.
const endOfAlignment = -1

type pline struct {
	text string
	num  int
}

type parser struct {
	sc    *bufio.Scanner
	line  int
	depth int // open bracket comments
	carry *pline
}

func newParser(r io.Reader) *parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &parser{sc: sc}
}

// readLine returns the next line with bracket comments stripped.
func (p *parser) readLine() (pline, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return pline{}, fmt.Errorf("read nexus: %w", err)
		}
		return pline{}, io.EOF
	}
	p.line++
	return pline{text: p.stripComments(p.sc.Text()), num: p.line}, nil
}

// stripComments removes [bracketed] comments, which may span lines.
func (p *parser) stripComments(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '[':
			p.depth++
		case ']':
			if p.depth > 0 {
				p.depth--
			}
		default:
			if p.depth == 0 {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// expectMagic consumes the leading #NEXUS token.
func (p *parser) expectMagic() error {
	for {
		ln, err := p.readLine()
		if err == io.EOF {
			return &ParseError{Line: p.line, Message: "empty input"}
		}
		if err != nil {
			return err
		}
		t := strings.TrimSpace(ln.text)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(strings.ToUpper(t), "#NEXUS") {
			return &ParseError{Line: ln.num, Message: "not a NEXUS file (missing #NEXUS header)"}
		}
		return nil
	}
}

// nextStatement accumulates cleaned lines until a terminating semicolon.
// Text after the semicolon is carried over to the next call.
func (p *parser) nextStatement() ([]pline, error) {
	var lines []pline
	for {
		var cur pline
		if p.carry != nil {
			cur = *p.carry
			p.carry = nil
		} else {
			var err error
			cur, err = p.readLine()
			if err == io.EOF {
				for _, ln := range lines {
					if strings.TrimSpace(ln.text) != "" {
						return nil, &ParseError{Line: ln.num, Message: "unterminated statement (missing ';')"}
					}
				}
				return nil, io.EOF
			}
			if err != nil {
				return nil, err
			}
		}

		if i := strings.IndexByte(cur.text, ';'); i >= 0 {
			lines = append(lines, pline{text: cur.text[:i], num: cur.num})
			if rest := strings.TrimSpace(cur.text[i+1:]); rest != "" {
				p.carry = &pline{text: rest, num: cur.num}
			}
			return lines, nil
		}
		lines = append(lines, cur)
	}
}

func (p *parser) errAt(stmt []pline, msg string) error {
	line := p.line
	if len(stmt) > 0 {
		line = stmt[0].num
	}
	return &ParseError{Line: line, Message: msg}
}

// stmtFields joins a statement's lines and splits into whitespace fields.
func stmtFields(stmt []pline) []string {
	var b strings.Builder
	for i, ln := range stmt {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ln.text)
	}
	return strings.Fields(b.String())
}

// splitKeyValues normalizes "KEY=VALUE" tokens that may carry spaces around
// the equals sign.
func splitKeyValues(words []string) map[string]string {
	joined := strings.Join(words, " ")
	joined = strings.ReplaceAll(joined, " =", "=")
	joined = strings.ReplaceAll(joined, "= ", "=")
	kv := make(map[string]string)
	for _, tok := range strings.Fields(joined) {
		k, v, found := strings.Cut(tok, "=")
		if !found {
			kv[strings.ToUpper(k)] = ""
			continue
		}
		kv[strings.ToUpper(k)] = v
	}
	return kv
}

func (p *parser) parseDimensions(stmt []pline, words []string) (ntax, nchar int, err error) {
	kv := splitKeyValues(words)
	if v, ok := kv["NTAX"]; ok && v != "" {
		ntax, err = strconv.Atoi(v)
		if err != nil || ntax < 1 {
			return 0, 0, p.errAt(stmt, fmt.Sprintf("invalid NTAX value %q", v))
		}
	}
	if v, ok := kv["NCHAR"]; ok && v != "" {
		nchar, err = strconv.Atoi(v)
		if err != nil || nchar < 1 {
			return 0, 0, p.errAt(stmt, fmt.Sprintf("invalid NCHAR value %q", v))
		}
	}
	return ntax, nchar, nil
}

func (p *parser) parseFormat(stmt []pline, words []string) (gap, missing byte, err error) {
	gap, missing = '-', '?'
	kv := splitKeyValues(words)
	if v, ok := kv["DATATYPE"]; ok {
		switch strings.ToUpper(v) {
		case "DNA", "RNA", "NUCLEOTIDE", "":
		case "PROTEIN":
			return 0, 0, p.errAt(stmt, "protein alignments are not supported")
		default:
			return 0, 0, p.errAt(stmt, fmt.Sprintf("unsupported datatype %q", v))
		}
	}
	if v, ok := kv["GAP"]; ok {
		if len(v) != 1 {
			return 0, 0, p.errAt(stmt, fmt.Sprintf("invalid GAP symbol %q", v))
		}
		gap = v[0]
	}
	if v, ok := kv["MISSING"]; ok {
		if len(v) != 1 {
			return 0, 0, p.errAt(stmt, fmt.Sprintf("invalid MISSING symbol %q", v))
		}
		missing = v[0]
	}
	return gap, missing, nil
}

// parseMatrix decodes matrix rows. Interleaved matrices repeat taxon labels;
// chunks for the same taxon are concatenated in order.
func (p *parser) parseMatrix(stmt []pline, a *Alignment, gap, missing byte) error {
	keywordSeen := false
	for _, ln := range stmt {
		text := strings.TrimSpace(ln.text)
		if !keywordSeen {
			if text == "" {
				continue
			}
			// Drop the MATRIX keyword itself; a row may follow on the
			// same line.
			keywordSeen = true
			text = strings.TrimSpace(text[len("MATRIX"):])
		}
		if text == "" {
			continue
		}

		label, rest, err := splitLabel(text)
		if err != nil {
			return &ParseError{Line: ln.num, Message: err.Error()}
		}
		chunk := strings.Join(strings.Fields(rest), "")
		if chunk == "" {
			return &ParseError{Line: ln.num, Message: fmt.Sprintf("taxon %q has no sequence data on this row", label)}
		}

		norm, err := normalizeSequence(chunk, gap, missing)
		if err != nil {
			return &ParseError{Line: ln.num, Message: fmt.Sprintf("taxon %q: %s", label, err)}
		}

		if _, seen := a.seqs[label]; !seen {
			a.Taxa = append(a.Taxa, label)
		}
		a.seqs[label] += norm
	}
	return nil
}

// splitLabel separates a taxon label (possibly single-quoted) from the rest
// of a matrix row.
func splitLabel(row string) (label, rest string, err error) {
	if row[0] != '\'' {
		i := strings.IndexAny(row, " \t")
		if i < 0 {
			return "", "", fmt.Errorf("matrix row %q has a label but no sequence", row)
		}
		return row[:i], row[i+1:], nil
	}

	var b strings.Builder
	i := 1
	for i < len(row) {
		if row[i] == '\'' {
			if i+1 < len(row) && row[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			return b.String(), row[i+1:], nil
		}
		b.WriteByte(row[i])
		i++
	}
	return "", "", fmt.Errorf("unterminated quoted label in matrix row %q", row)
}

// normalizeSequence uppercases, maps the gap and missing symbols to their
// canonical forms, and rejects anything outside the IUPAC alphabet.
func normalizeSequence(chunk string, gap, missing byte) (string, error) {
	up := strings.ToUpper(chunk)
	out := make([]byte, len(up))
	for i := 0; i < len(up); i++ {
		c := up[i]
		switch c {
		case toUpperByte(gap):
			c = '-'
		case toUpperByte(missing):
			c = 'N'
		case 'U':
			c = 'T'
		}
		if !strings.ContainsRune(iupacNucleotides, rune(c)) {
			return "", fmt.Errorf("unrecognized character %q at row position %d", up[i], i+1)
		}
		out[i] = c
	}
	return string(out), nil
}

func toUpperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// parseCharset decodes "charset <name> = <ranges>". Supported range forms:
// "N", "N-M" and "N-." (end of alignment).
func (p *parser) parseCharset(stmt []pline) (CharsetDecl, error) {
	var b strings.Builder
	for i, ln := range stmt {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(ln.text)
	}
	text := strings.TrimSpace(b.String())
	text = strings.TrimSpace(text[len("CHARSET"):])

	name, ranges, found := strings.Cut(text, "=")
	if !found {
		return CharsetDecl{}, p.errAt(stmt, "charset statement missing '='")
	}
	decl := CharsetDecl{Name: strings.TrimSpace(name)}
	if decl.Name == "" {
		return CharsetDecl{}, p.errAt(stmt, "charset statement missing a name")
	}

	for _, tok := range strings.Fields(ranges) {
		if strings.ContainsRune(tok, '\\') {
			return CharsetDecl{}, p.errAt(stmt, fmt.Sprintf("charset %q: stepped ranges are not supported", decl.Name))
		}
		from, to, isRange := strings.Cut(tok, "-")
		start, err := strconv.Atoi(from)
		if err != nil || start < 1 {
			return CharsetDecl{}, p.errAt(stmt, fmt.Sprintf("charset %q: invalid position %q", decl.Name, from))
		}
		end := start
		if isRange {
			if to == "." {
				end = endOfAlignment
			} else {
				end, err = strconv.Atoi(to)
				if err != nil || end < 1 {
					return CharsetDecl{}, p.errAt(stmt, fmt.Sprintf("charset %q: invalid position %q", decl.Name, to))
				}
			}
		}
		decl.Ranges = append(decl.Ranges, Range{Start: start, End: end})
	}
	if len(decl.Ranges) == 0 {
		return CharsetDecl{}, p.errAt(stmt, fmt.Sprintf("charset %q declares no positions", decl.Name))
	}
	return decl, nil
}
