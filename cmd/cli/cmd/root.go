// Package cmd provides the CLI commands for slab-pricing.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"slab-pricing/core/catalog"
	"slab-pricing/db"
	"slab-pricing/internal/config"
	"slab-pricing/internal/logging"
)

const version = "0.1.0"

var (
	cfgFile     string
	verbose     bool
	catalogPath string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "slab-pricing",
	Short: "Price subscriptions against tiered user slabs",
	Long: `slab-pricing computes tiered per-user subscription prices.

Users are priced by the slab their position falls into: with slabs
1-5 at 100 and 6-20 at 80, ten users cost 5*100 + 5*80.

Examples:
  slab-pricing calculate --users 10 --catalog slabs.json
  slab-pricing calculate --users 30 --cycle yearly --format json
  slab-pricing quote --users 12 --wallet 50 --current-users 5 --current-paid 500
  slab-pricing catalog validate slabs.hcl`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.slab-pricing.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&catalogPath, "catalog", "c", "", "slab catalog file (json, yaml, hcl); overrides config")

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.LoadEnv()
	config.Set(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// catalogSource picks the catalog source: --catalog wins over config
func catalogSource(ctx context.Context) (catalog.Source, func(), error) {
	cfg := config.Get()
	if catalogPath != "" {
		return catalog.NewFileSource(catalogPath), func() {}, nil
	}

	switch cfg.Catalog.Source {
	case config.SourceHTTP:
		return catalog.NewHTTPSource(cfg.Catalog.URL, cfg.Catalog.Timeout()).
			WithToken(cfg.Catalog.Token), func() {}, nil
	case config.SourcePostgres:
		store, err := db.NewPostgresStore(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db.NewCatalogSource(store), func() { store.Close() }, nil
	default:
		return catalog.NewFileSource(cfg.Catalog.Path), func() {}, nil
	}
}

// loadCatalog loads the configured catalog with the configured timeout
func loadCatalog() (*catalog.Catalog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.Get().Catalog.Timeout())
	defer cancel()

	source, closeFn, err := catalogSource(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return source.Load(ctx)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "slab-pricing version %s\n", version)
	},
}
