// Package products resolves gene symbols to the product names written into
// gene and CDS qualifiers.
package products

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// builtinProducts covers the markers commonly sequenced for plant and
// barcode studies, with the product names used in INSDC submissions.
var builtinProducts = map[string]string{
	"accD":  "acetyl-CoA carboxylase beta subunit",
	"atpA":  "ATP synthase CF1 alpha subunit",
	"atpB":  "ATP synthase CF1 beta subunit",
	"cemA":  "chloroplast envelope membrane protein",
	"clpP":  "ATP-dependent Clp protease proteolytic subunit",
	"cob":   "cytochrome b",
	"cox1":  "cytochrome c oxidase subunit 1",
	"matK":  "maturase K",
	"matR":  "maturase R",
	"nad5":  "NADH dehydrogenase subunit 5",
	"ndhF":  "NADH dehydrogenase subunit F",
	"petA":  "cytochrome f",
	"petD":  "cytochrome b6/f complex subunit IV",
	"psbA":  "photosystem II protein D1",
	"rbcL":  "ribulose-1,5-bisphosphate carboxylase/oxygenase large subunit",
	"rpl16": "ribosomal protein L16",
	"rpl32": "ribosomal protein L32",
	"rpoB":  "RNA polymerase beta subunit",
	"rpoC1": "RNA polymerase beta' subunit",
	"rps4":  "ribosomal protein S4",
	"rps16": "ribosomal protein S16",
	"ycf1":  "hypothetical chloroplast RF1",
	"ycf2":  "hypothetical chloroplast RF2",
}

// Builtin returns a copy of the builtin symbol-to-product table.
func Builtin() map[string]string {
	m := make(map[string]string, len(builtinProducts))
	for k, v := range builtinProducts {
		m[k] = v
	}
	return m
}

// Fetcher resolves a gene symbol against a remote source.
type Fetcher interface {
	Fetch(symbol string) (string, error)
}

// Catalog resolves gene symbols to product names. Lookup order: user
// overrides, then the cache store, then the builtin table, then the remote
// fetcher. Fetched names are written back to the store.
type Catalog struct {
	overrides map[string]string
	store     *Store
	fetcher   Fetcher
	logger    *zap.Logger
}

// NewCatalog creates a catalog backed by the builtin table only.
func NewCatalog() *Catalog {
	return &Catalog{logger: zap.NewNop()}
}

// SetOverrides installs user-supplied symbol-to-product mappings that win
// over every other source.
func (c *Catalog) SetOverrides(m map[string]string) {
	c.overrides = m
}

// SetStore attaches a cache store consulted before the builtin table.
func (c *Catalog) SetStore(s *Store) {
	c.store = s
}

// SetFetcher attaches a remote fetcher used as the last resort.
func (c *Catalog) SetFetcher(f Fetcher) {
	c.fetcher = f
}

// SetLogger sets the logger for lookup diagnostics.
func (c *Catalog) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Product resolves a gene symbol to a product name. Store and fetcher
// failures degrade to a miss so a conversion run never fails on product
// lookup.
func (c *Catalog) Product(symbol string) (string, bool) {
	if name, ok := c.overrides[symbol]; ok {
		return name, true
	}

	if c.store != nil {
		name, ok, err := c.store.Get(symbol)
		if err != nil {
			c.logger.Warn("product cache lookup failed",
				zap.String("symbol", symbol), zap.Error(err))
		} else if ok {
			return name, true
		}
	}

	if name, ok := builtinProducts[symbol]; ok {
		return name, true
	}

	if c.fetcher == nil {
		return "", false
	}
	name, err := c.fetcher.Fetch(symbol)
	if err != nil {
		c.logger.Warn("product fetch failed",
			zap.String("symbol", symbol), zap.Error(err))
		return "", false
	}
	if c.store != nil {
		if err := c.store.Put(symbol, name, "entrez"); err != nil {
			c.logger.Warn("product cache write failed",
				zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return name, true
}

// LoadOverrides reads a tab-separated symbol-to-product file. Blank lines
// and lines starting with # are skipped.
func LoadOverrides(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open products file: %w", err)
	}
	defer f.Close()

	overrides := make(map[string]string)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.SplitN(text, "\t", 2)
		if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
			return nil, fmt.Errorf("products file line %d: want symbol<TAB>product", line)
		}
		overrides[strings.TrimSpace(fields[0])] = strings.TrimSpace(fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading products file: %w", err)
	}
	return overrides, nil
}
