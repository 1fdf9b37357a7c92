// Package cmd - catalog commands
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"slab-pricing/core/catalog"
	"slab-pricing/core/output"
	"slab-pricing/db"
	"slab-pricing/internal/config"
)

var (
	catalogFormat     string
	importDatabaseURL string
	importActivate    bool
	importAllowErrors bool
)

// catalogCmd groups slab catalog commands
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect, validate and import slab catalogs",
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print the slabs of a catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogShow,
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Report gaps, overlaps and malformed slabs",
	Long: `Validate a slab catalog. Issues are reported, never fixed; the
calculator still prices an imperfect catalog. Exits non-zero when any
issue has error severity.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalogValidate,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a catalog file as a postgres snapshot",
	Long: `Import a catalog file into PostgreSQL. Migrations run first.
An identical catalog is reused instead of stored twice.

Examples:
  slab-pricing catalog import slabs.yaml --activate
  slab-pricing catalog import slabs.hcl --database-url postgres://localhost/pricing`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

func init() {
	catalogCmd.PersistentFlags().StringVarP(&catalogFormat, "format", "f", "", "output format (cli, json, markdown)")

	catalogImportCmd.Flags().StringVar(&importDatabaseURL, "database-url", "", "postgres connection string (default from config / DATABASE_URL)")
	catalogImportCmd.Flags().BoolVar(&importActivate, "activate", false, "make the imported snapshot the active catalog")
	catalogImportCmd.Flags().BoolVar(&importAllowErrors, "allow-errors", false, "import even when validation reports errors")

	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogImportCmd)
	rootCmd.AddCommand(catalogCmd)
}

// catalogFromArgs loads the named file, or the configured catalog
func catalogFromArgs(args []string) (*catalog.Catalog, error) {
	if len(args) == 1 {
		return catalog.LoadFile(args[0])
	}
	return loadCatalog()
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	c, err := catalogFromArgs(args)
	if err != nil {
		return err
	}

	if output.Format(formatOrDefault(catalogFormat)) == output.FormatJSON {
		data, err := c.EncodeJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	currency := config.Get().Pricing.DefaultCurrency
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tUSERS\tMONTHLY\tYEARLY\tFREE EXT/USER")
	for _, s := range c.Slabs() {
		fmt.Fprintf(tw, "%s\t%s\t%d-%d\t%s %s\t%s %s\t%d\n",
			s.ID, s.Name, s.MinUsers, s.MaxUsers,
			output.Money(s.MonthlyPrice), currency,
			output.Money(s.YearlyPrice), currency,
			s.FreeExternalUsersPerInternalUser,
		)
	}
	return tw.Flush()
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	c, err := catalogFromArgs(args)
	if err != nil {
		return err
	}

	formatter, err := output.New(formatOrDefault(catalogFormat))
	if err != nil {
		return err
	}

	issues := c.Validate(catalog.DefaultValidationRules())
	if err := formatter.RenderIssues(cmd.OutOrStdout(), issues); err != nil {
		return err
	}
	if catalog.HasErrors(issues) {
		return fmt.Errorf("catalog has %d issue(s)", len(issues))
	}
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	c, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	databaseURL := importDatabaseURL
	if databaseURL == "" {
		databaseURL = config.Get().Catalog.DatabaseURL
	}
	if databaseURL == "" {
		return fmt.Errorf("no database url: pass --database-url or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Get().Catalog.Timeout())
	defer cancel()

	store, err := db.NewPostgresStore(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}

	result, err := db.NewImporter(store).AllowErrors(importAllowErrors).Import(ctx, path, c, importActivate)
	if err != nil {
		if result != nil && len(result.Issues) > 0 {
			for _, i := range result.Issues {
				fmt.Fprintln(os.Stderr, i.String())
			}
		}
		return err
	}

	out := cmd.OutOrStdout()
	if result.Reused {
		fmt.Fprintf(out, "Catalog unchanged, reusing snapshot %s\n", result.Snapshot.ID)
	} else {
		fmt.Fprintf(out, "Stored snapshot %s (%d slabs)\n", result.Snapshot.ID, c.Len())
	}
	if result.Activated {
		fmt.Fprintln(out, "Snapshot activated")
	}
	for _, i := range result.Issues {
		fmt.Fprintln(out, i.String())
	}
	return nil
}
