// Package metadata reads the per-taxon metadata table (CSV) whose columns
// become source-feature qualifiers.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultNameColumn is the column used to match rows to alignment taxa when
// no other label is configured.
const DefaultNameColumn = "isolate"

// allowedQualifiers is the INSDC source-feature qualifier vocabulary accepted
// as metadata columns. Anything else in the header is rejected.
var allowedQualifiers = map[string]bool{
	"altitude":           true,
	"bio_material":       true,
	"clone":              true,
	"collected_by":       true,
	"collection_date":    true,
	"country":            true,
	"cultivar":           true,
	"culture_collection": true,
	"db_xref":            true,
	"dev_stage":          true,
	"ecotype":            true,
	"haplotype":          true,
	"host":               true,
	"identified_by":      true,
	"isolate":            true,
	"isolation_source":   true,
	"lat_lon":            true,
	"mol_type":           true,
	"note":               true,
	"organelle":          true,
	"organism":           true,
	"PCR_primers":        true,
	"pop_variant":        true,
	"serotype":           true,
	"sex":                true,
	"specimen_voucher":   true,
	"strain":             true,
	"sub_species":        true,
	"sub_strain":         true,
	"tissue_type":        true,
	"variety":            true,
}

// Row holds one taxon's qualifiers keyed by qualifier name. The name column
// is included, so a default table carries its taxon as the isolate qualifier.
type Row map[string]string

// Table is the parsed metadata table. Rows are keyed by the value of the
// name column; taxa keep file order.
type Table struct {
	NameColumn string
	Columns    []string // qualifier columns in header order, name column excluded

	rows map[string]Row
	taxa []string
}

// ParseFile reads a metadata CSV from disk.
func ParseFile(path, nameColumn string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}
	defer file.Close()
	return Parse(file, nameColumn)
}

// Parse reads a metadata CSV. The first record is the header; nameColumn
// must appear in it and every other column must be a known INSDC source
// qualifier.
func Parse(r io.Reader, nameColumn string) (*Table, error) {
	if nameColumn == "" {
		nameColumn = DefaultNameColumn
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("metadata file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata header: %w", err)
	}

	nameIdx := -1
	t := &Table{
		NameColumn: nameColumn,
		rows:       make(map[string]Row),
	}
	for i, col := range header {
		col = strings.TrimSpace(col)
		header[i] = col
		if col == nameColumn {
			if nameIdx >= 0 {
				return nil, fmt.Errorf("metadata column %q appears twice", nameColumn)
			}
			nameIdx = i
			continue
		}
		if !allowedQualifiers[col] {
			return nil, fmt.Errorf("metadata column %q is not a recognized source qualifier", col)
		}
		t.Columns = append(t.Columns, col)
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("metadata file has no %q column to match sequences by", nameColumn)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata line %d: %w", line, err)
		}

		taxon := strings.TrimSpace(rec[nameIdx])
		if taxon == "" {
			return nil, fmt.Errorf("metadata line %d has an empty %q value", line, nameColumn)
		}
		if _, dup := t.rows[taxon]; dup {
			return nil, fmt.Errorf("metadata line %d repeats taxon %q", line, taxon)
		}

		row := make(Row, len(header))
		for i, val := range rec {
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			row[header[i]] = val
		}
		t.rows[taxon] = row
		t.taxa = append(t.taxa, taxon)
	}

	if len(t.taxa) == 0 {
		return nil, fmt.Errorf("metadata file has no data rows")
	}
	return t, nil
}

// Row returns the qualifiers for a taxon.
func (t *Table) Row(taxon string) (Row, bool) {
	r, ok := t.rows[taxon]
	return r, ok
}

// Taxa returns the taxa in file order.
func (t *Table) Taxa() []string {
	return t.taxa
}
