package annotate

// GapSymbol is the canonical alignment gap character after NEXUS
// normalization.
const GapSymbol = '-'

// validBases are the characters legal inside a coding region: IUPAC
// nucleotide codes plus the gap symbol. Sequences are uppercase by the time
// they reach translation.
const validBases = "ACGTRYSWKMBDHVN-"

// ReverseComplement returns the reverse complement of a DNA sequence.
// Reverse-strand regions are complemented as a whole, after segment
// concatenation, so joined exons keep their reading order.
func ReverseComplement(seq string) string {
	n := len(seq)
	result := make([]byte, n)
	for i := 0; i < n; i++ {
		result[i] = Complement(seq[n-1-i])
	}
	return string(result)
}

// Complement returns the complement of a single base, covering the IUPAC
// ambiguity codes. Gaps complement to themselves.
func Complement(base byte) byte {
	switch base {
	case 'A':
		return 'T'
	case 'T', 'U':
		return 'A'
	case 'G':
		return 'C'
	case 'C':
		return 'G'
	case 'R':
		return 'Y'
	case 'Y':
		return 'R'
	case 'S':
		return 'S'
	case 'W':
		return 'W'
	case 'K':
		return 'M'
	case 'M':
		return 'K'
	case 'B':
		return 'V'
	case 'V':
		return 'B'
	case 'D':
		return 'H'
	case 'H':
		return 'D'
	case GapSymbol:
		return GapSymbol
	default:
		return 'N'
	}
}
