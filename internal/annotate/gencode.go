package annotate

import "fmt"

// CodeTable is an NCBI genetic code table.
type CodeTable struct {
	ID   int
	Name string

	codons map[string]byte
}

// standardCode is NCBI table 1: DNA codon to amino acid (single letter).
// Other tables are codon overrides on top of it.
var standardCode = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',

	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',

	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',

	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

var tableNames = map[int]string{
	1:  "Standard",
	2:  "Vertebrate Mitochondrial",
	3:  "Yeast Mitochondrial",
	4:  "Mold, Protozoan, and Coelenterate Mitochondrial",
	5:  "Invertebrate Mitochondrial",
	11: "Bacterial, Archaeal and Plant Plastid",
}

var tableOverrides = map[int]map[string]byte{
	1:  nil,
	2:  {"AGA": '*', "AGG": '*', "ATA": 'M', "TGA": 'W'},
	3:  {"ATA": 'M', "CTT": 'T', "CTC": 'T', "CTA": 'T', "CTG": 'T', "TGA": 'W'},
	4:  {"TGA": 'W'},
	5:  {"AGA": 'S', "AGG": 'S', "ATA": 'M', "TGA": 'W'},
	11: nil,
}

// StandardTableID is the default genetic code when none is configured.
const StandardTableID = 1

// TableByID builds the genetic code table for an NCBI table id.
func TableByID(id int) (*CodeTable, error) {
	name, ok := tableNames[id]
	if !ok {
		return nil, fmt.Errorf("unsupported genetic code table %d", id)
	}
	codons := make(map[string]byte, len(standardCode))
	for codon, aa := range standardCode {
		codons[codon] = aa
	}
	for codon, aa := range tableOverrides[id] {
		codons[codon] = aa
	}
	return &CodeTable{ID: id, Name: name, codons: codons}, nil
}

// Translate translates a single codon. Stop codons yield '*'; codons
// containing gaps, ambiguity codes or anything outside ACGT yield 'X'.
func (t *CodeTable) Translate(codon string) byte {
	if len(codon) != 3 {
		return 'X'
	}
	if aa, ok := t.codons[codon]; ok {
		return aa
	}
	return 'X'
}

// IsStop reports whether the codon is a stop codon in this table.
func (t *CodeTable) IsStop(codon string) bool {
	return t.Translate(codon) == '*'
}
