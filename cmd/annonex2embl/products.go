package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yanjo96/annonex2embl/internal/products"
)

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the gene product name cache",
		Long: `The products commands maintain the local DuckDB cache that maps gene
symbols to product names. Convert consults the cache before asking
Entrez, so warming it up front keeps conversions offline.`,
	}
	cmd.AddCommand(newProductsFetchCmd())
	cmd.AddCommand(newProductsListCmd())
	return cmd
}

func newProductsFetchCmd() *cobra.Command {
	var (
		email     string
		cachePath string
	)

	cmd := &cobra.Command{
		Use:   "fetch SYMBOL...",
		Short: "Fetch product names from Entrez into the cache",
		Example: `  annonex2embl products fetch matK rbcL -e user@example.org
  annonex2embl products fetch trnL --products-cache ./products.duckdb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = viper.GetString("email")
			}
			if email == "" {
				return fmt.Errorf("Entrez requests need an email address (--email or config)")
			}

			store, err := openCache(cachePath)
			if err != nil {
				return err
			}
			defer store.Close()

			fetcher := products.NewEntrezFetcher(email)
			var failed int
			for _, symbol := range args {
				name, err := fetcher.Fetch(symbol)
				if err != nil {
					fmt.Fprintf(os.Stderr, "  %s: %v\n", symbol, err)
					failed++
					continue
				}
				if err := store.Put(symbol, name, "entrez"); err != nil {
					return fmt.Errorf("caching %s: %w", symbol, err)
				}
				fmt.Printf("  %s\t%s\n", symbol, name)
			}
			if failed == len(args) {
				return fmt.Errorf("no symbols fetched")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address sent with Entrez requests")
	cmd.Flags().StringVar(&cachePath, "products-cache", "", "DuckDB product name cache (default ~/.annonex2embl.duckdb)")

	return cmd
}

func newProductsListCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known product names",
		Long: `List prints every product name the resolver can answer without the
network: the builtin marker table overlaid with the local cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type row struct{ name, source string }
			rows := make(map[string]row)
			for symbol, name := range products.Builtin() {
				rows[symbol] = row{name, "builtin"}
			}

			path := cachePath
			if path == "" {
				path = defaultCachePath()
			}
			// The cache wins over builtin entries, same as during conversion.
			if path != "" {
				if _, err := os.Stat(path); err == nil {
					store, err := products.Open(path)
					if err != nil {
						return fmt.Errorf("opening product cache: %w", err)
					}
					defer store.Close()
					entries, err := store.All()
					if err != nil {
						return err
					}
					for _, e := range entries {
						source := e.Source
						if source == "" {
							source = "cache"
						}
						rows[e.Symbol] = row{e.Name, source}
					}
				}
			}

			symbols := make([]string, 0, len(rows))
			for symbol := range rows {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SYMBOL\tPRODUCT\tSOURCE")
			for _, symbol := range symbols {
				r := rows[symbol]
				fmt.Fprintf(tw, "%s\t%s\t%s\n", symbol, r.name, r.source)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&cachePath, "products-cache", "", "DuckDB product name cache (default ~/.annonex2embl.duckdb)")

	return cmd
}

// openCache opens the product cache for writing, creating it if needed.
func openCache(path string) (*products.Store, error) {
	if path == "" {
		path = defaultCachePath()
	}
	if path == "" {
		return nil, fmt.Errorf("cannot locate home directory; pass --products-cache")
	}
	store, err := products.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening product cache: %w", err)
	}
	if err := store.CreateSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("initializing product cache: %w", err)
	}
	return store, nil
}
