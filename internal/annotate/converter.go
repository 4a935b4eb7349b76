package annotate

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/Yanjo96/annonex2embl/internal/metadata"
	"github.com/Yanjo96/annonex2embl/internal/nexus"
)

// ExtendFlag is attached to a downstream region when an upstream coding
// region was truncated and no automatic 5' extension is performed.
const ExtendFlag = "cannot extend — manual review required"

// ProductLookup resolves gene symbols (charset base names) to product names.
type ProductLookup interface {
	Product(symbol string) (string, bool)
}

// RecordWriter receives converted records in alignment order.
type RecordWriter interface {
	WriteRecord(*Record) error
	Flush() error
}

// RegionAnnotation is one charset materialized for one taxon: segments in
// degapped coordinates, plus translation output for coding regions.
type RegionAnnotation struct {
	Charset     *Charset
	Segments    []Segment
	Product     string
	Translation *TranslationResult
	Notes       []string
}

// Record holds everything the flatfile writers need for one taxon.
type Record struct {
	Taxon       string
	Sequence    string // degapped
	Source      metadata.Row
	TranslTable int
	Regions     []*RegionAnnotation
}

// TaxonFailure pairs a skipped taxon with the error that aborted it.
type TaxonFailure struct {
	Taxon string
	Err   error
}

// Report summarizes a conversion run.
type Report struct {
	Taxa     int
	Records  int
	Failures []TaxonFailure
}

// Converter turns aligned taxa into flatfile records. The model set and
// genetic code table are fixed at construction and shared read-only across
// all taxa, so Convert is safe to call concurrently.
type Converter struct {
	set      *ModelSet
	checker  *Checker
	meta     *metadata.Table
	products ProductLookup
	logger   *zap.Logger
	workers  int
}

// NewConverter creates a converter over classified, paired charsets.
func NewConverter(set *ModelSet, table *CodeTable) *Converter {
	return &Converter{
		set:     set,
		checker: NewChecker(table),
		logger:  zap.NewNop(),
	}
}

// SetMetadata attaches the per-taxon qualifier table. When set, taxa
// without a metadata row fail conversion.
func (c *Converter) SetMetadata(t *metadata.Table) {
	c.meta = t
}

// SetProducts attaches a product-name lookup for gene and CDS features.
func (c *Converter) SetProducts(p ProductLookup) {
	c.products = p
}

// SetLogger sets the logger for warning and info messages.
func (c *Converter) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetWorkers fixes the worker-pool size; 0 means runtime.NumCPU().
func (c *Converter) SetWorkers(n int) {
	c.workers = n
}

// Convert builds the record for a single taxon from its aligned sequence.
func (c *Converter) Convert(taxon, aligned string) (*Record, error) {
	ordered := c.set.Ordered
	degapped, shifted := Degap(aligned, ordered)

	rec := &Record{
		Taxon:       taxon,
		Sequence:    degapped,
		TranslTable: c.checker.Table().ID,
	}

	if c.meta != nil {
		row, ok := c.meta.Row(taxon)
		if !ok {
			return nil, &TaxonError{Taxon: taxon, Err: fmt.Errorf("no metadata row matches this taxon")}
		}
		rec.Source = row
	}

	regions := make([]*RegionAnnotation, 0, len(ordered))
	for i, cs := range ordered {
		segs := shifted[i]
		if len(segs) == 0 {
			c.logger.Warn("region lost to gaps, feature skipped",
				zap.String("taxon", taxon),
				zap.String("charset", cs.Name))
			continue
		}

		region := &RegionAnnotation{Charset: cs, Segments: segs}
		if cs.IsCoding() {
			tr, err := c.checker.Check(taxon, cs, segs, degapped)
			if err != nil {
				return nil, &TaxonError{Taxon: taxon, Err: err}
			}
			region.Translation = tr
			for _, w := range tr.Warnings {
				c.logger.Warn("translation quality warning",
					zap.String("taxon", taxon),
					zap.String("charset", cs.Name),
					zap.String("warning", w))
			}
		}
		if c.products != nil {
			switch cs.Kind {
			case KindGene, KindCDS:
				if p, ok := c.products.Product(cs.Base); ok {
					region.Product = p
				}
			}
		}
		regions = append(regions, region)
	}

	c.flagUncompensated(taxon, regions)
	rec.Regions = regions
	return rec, nil
}

// flagUncompensated marks, for every truncated coding region, the first
// following intron/spacer region as needing manual review. No automatic
// extension is attempted.
func (c *Converter) flagUncompensated(taxon string, regions []*RegionAnnotation) {
	for i, r := range regions {
		if r.Translation == nil || !r.Translation.Truncated {
			continue
		}
		cdsEnd := r.Segments[len(r.Segments)-1].End
		for _, after := range regions[i+1:] {
			switch after.Charset.Kind {
			case KindIntron, KindIGS, KindOther:
			default:
				continue
			}
			if after.Segments[0].Start < cdsEnd {
				continue
			}
			after.Notes = append(after.Notes, ExtendFlag)
			c.logger.Warn("downstream region not extended over truncated coding region",
				zap.String("taxon", taxon),
				zap.String("charset", after.Charset.Name),
				zap.String("cds", r.Charset.Name))
			break
		}
	}
}

// ConvertAll converts every taxon in the alignment and streams records to
// the writer in alignment order. Per-taxon failures abort only that taxon
// and are collected in the report, logged together at end of run.
func (c *Converter) ConvertAll(a *nexus.Alignment, w RecordWriter) (*Report, error) {
	items := make(chan WorkItem, 2*runtime.NumCPU())
	go func() {
		defer close(items)
		for i, taxon := range a.Taxa {
			seq, _ := a.Sequence(taxon)
			items <- WorkItem{Seq: i, Taxon: taxon, Sequence: seq}
		}
	}()

	report := &Report{Taxa: a.NumTaxa()}
	results := c.ParallelConvert(items, c.workers)
	if err := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			report.Failures = append(report.Failures, TaxonFailure{Taxon: r.Taxon, Err: r.Err})
			return nil
		}
		if err := w.WriteRecord(r.Record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		report.Records++
		return nil
	}); err != nil {
		return nil, err
	}

	for _, f := range report.Failures {
		c.logger.Warn("taxon skipped", zap.String("taxon", f.Taxon), zap.Error(f.Err))
	}
	if report.Taxa == 0 {
		c.logger.Info("0 sequences converted")
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}
	return report, nil
}
