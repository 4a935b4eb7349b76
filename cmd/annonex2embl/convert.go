package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Yanjo96/annonex2embl/internal/annotate"
	"github.com/Yanjo96/annonex2embl/internal/flatfile"
	"github.com/Yanjo96/annonex2embl/internal/metadata"
	"github.com/Yanjo96/annonex2embl/internal/nexus"
	"github.com/Yanjo96/annonex2embl/internal/products"
)

type convertOptions struct {
	nexusPath string
	csvPath   string
	outPath   string
	email     string
	format    string
	label     string
	table     int
	topology  string
	division  string
	authors   string
	workers   int
	cachePath string
	tsvPath   string
	offline   bool
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a NEXUS alignment and CSV metadata to flatfiles",
		Long: `Convert reads a NEXUS file with a SETS block and a CSV metadata table,
builds one annotated record per aligned sequence, and writes EMBL or
GenBank flatfiles.

Sequences that fail validation are skipped and reported at the end of
the run. The command fails only when no sequence converts at all or the
inputs themselves cannot be parsed.`,
		Example: `  annonex2embl convert -n alignment.nex -c metadata.csv -o out.embl
  annonex2embl convert -n alignment.nex -c metadata.csv -f gb --division PLN
  annonex2embl convert -n alignment.nex -c metadata.csv -e user@example.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config supplies defaults for flags the user left unset.
			if !cmd.Flags().Changed("email") && viper.IsSet("email") {
				opts.email = viper.GetString("email")
			}
			if !cmd.Flags().Changed("table") && viper.IsSet("table") {
				opts.table = viper.GetInt("table")
			}
			if !cmd.Flags().Changed("outformat") && viper.IsSet("outformat") {
				opts.format = viper.GetString("outformat")
			}
			return runConvert(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.nexusPath, "nexus", "n", "", "Input NEXUS file with a SETS block (required)")
	cmd.Flags().StringVarP(&opts.csvPath, "csv", "c", "", "Input CSV metadata table (required)")
	cmd.Flags().StringVarP(&opts.outPath, "outfile", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.email, "email", "e", "", "Email address sent with Entrez product lookups")
	cmd.Flags().StringVarP(&opts.format, "outformat", "f", "embl", "Output format: embl or gb")
	cmd.Flags().StringVarP(&opts.label, "label", "l", metadata.DefaultNameColumn, "CSV column holding the sequence names")
	cmd.Flags().IntVarP(&opts.table, "table", "t", 11, "NCBI genetic code table for translation checks")
	cmd.Flags().StringVar(&opts.topology, "topology", "linear", "Sequence topology: linear or circular")
	cmd.Flags().StringVar(&opts.division, "division", "", "Taxonomic division code for the ID line, e.g. PLN")
	cmd.Flags().StringVar(&opts.authors, "authors", "", "Author list for the reference block")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Sequences converted in parallel (0 = number of CPUs)")
	cmd.Flags().StringVar(&opts.cachePath, "products-cache", "", "DuckDB product name cache (default ~/.annonex2embl.duckdb)")
	cmd.Flags().StringVar(&opts.tsvPath, "products-tsv", "", "Tab-separated symbol/product overrides")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Never contact Entrez, even when an email is set")

	cmd.MarkFlagRequired("nexus")
	cmd.MarkFlagRequired("csv")

	return cmd
}

func runConvert(opts convertOptions) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	if opts.topology != "linear" && opts.topology != "circular" {
		return fmt.Errorf("unknown topology %q (want linear or circular)", opts.topology)
	}
	if opts.format != "embl" && opts.format != "gb" {
		return fmt.Errorf("unknown output format %q (want embl or gb)", opts.format)
	}

	nexFile, err := nexus.ParseFile(opts.nexusPath)
	if err != nil {
		return fmt.Errorf("parsing NEXUS file: %w", err)
	}
	logger.Info("parsed alignment",
		zap.String("file", opts.nexusPath),
		zap.Int("taxa", len(nexFile.Alignment.Taxa)),
		zap.Int("length", nexFile.Alignment.Length),
		zap.Int("charsets", len(nexFile.Charsets)))

	meta, err := metadata.ParseFile(opts.csvPath, opts.label)
	if err != nil {
		return fmt.Errorf("parsing metadata table: %w", err)
	}

	charsets, err := annotate.Classify(nexFile.Charsets, nexFile.Alignment.Length, annotate.DefaultConvention())
	if err != nil {
		return fmt.Errorf("classifying charsets: %w", err)
	}
	models, err := annotate.BuildModels(charsets)
	if err != nil {
		return fmt.Errorf("building gene models: %w", err)
	}

	codeTable, err := annotate.TableByID(opts.table)
	if err != nil {
		return err
	}

	catalog, closeCache, err := buildCatalog(opts, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	conv := annotate.NewConverter(models, codeTable)
	conv.SetMetadata(meta)
	conv.SetProducts(catalog)
	conv.SetLogger(logger)
	conv.SetWorkers(opts.workers)

	out := os.Stdout
	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	wopts := flatfile.Options{
		Topology: opts.topology,
		Division: opts.division,
		Authors:  opts.authors,
	}
	var writer annotate.RecordWriter
	if opts.format == "gb" {
		writer = flatfile.NewGenBankWriter(out, wopts)
	} else {
		writer = flatfile.NewWriter(out, wopts)
	}

	report, err := conv.ConvertAll(nexFile.Alignment, writer)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Converted %d of %d sequences\n", report.Records, report.Taxa)
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "  skipped %s: %v\n", f.Taxon, f.Err)
	}
	if report.Records == 0 {
		return fmt.Errorf("no sequences converted")
	}
	return nil
}

// buildCatalog assembles the product name resolution chain: user overrides,
// DuckDB cache, builtin table, then Entrez when an email is available.
func buildCatalog(opts convertOptions, logger *zap.Logger) (*products.Catalog, func(), error) {
	catalog := products.NewCatalog()
	catalog.SetLogger(logger)
	closeCache := func() {}

	if opts.tsvPath != "" {
		overrides, err := products.LoadOverrides(opts.tsvPath)
		if err != nil {
			return nil, nil, err
		}
		catalog.SetOverrides(overrides)
	}

	cachePath := opts.cachePath
	explicit := cachePath != ""
	if !explicit {
		cachePath = defaultCachePath()
	}
	if cachePath != "" {
		store, err := products.Open(cachePath)
		if err == nil {
			err = store.CreateSchema()
		}
		switch {
		case err == nil:
			catalog.SetStore(store)
			closeCache = func() { store.Close() }
		case explicit:
			return nil, nil, fmt.Errorf("opening product cache: %w", err)
		default:
			logger.Warn("product cache unavailable",
				zap.String("path", cachePath), zap.Error(err))
		}
	}

	if !opts.offline && opts.email != "" {
		catalog.SetFetcher(products.NewEntrezFetcher(opts.email))
	}
	return catalog, closeCache, nil
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".annonex2embl.duckdb")
}
