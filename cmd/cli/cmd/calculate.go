// Package cmd - calculate command
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slab-pricing/core/output"
	"slab-pricing/core/pricing"
	"slab-pricing/core/types"
	"slab-pricing/internal/config"
	"slab-pricing/internal/logging"
)

var (
	calcUsers   int
	calcCycle   string
	calcFormat  string
	calcFlat    bool
	calcDetails bool
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate the tiered price for a user count",
	Long: `Split the requested users across the catalog slabs and price each
share at its slab's rate. Users beyond the highest slab are billed at
that slab's rate on an overflow line.

Examples:
  slab-pricing calculate --users 10
  slab-pricing calculate --users 250 --cycle yearly --flat
  slab-pricing calculate --users 10 --format markdown`,
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().IntVarP(&calcUsers, "users", "u", 0, "number of users to price [REQUIRED]")
	calculateCmd.Flags().StringVar(&calcCycle, "cycle", "", "billing cycle (monthly, yearly); default from config")
	calculateCmd.Flags().StringVarP(&calcFormat, "format", "f", "", "output format (cli, json, markdown)")
	calculateCmd.Flags().BoolVar(&calcFlat, "flat", false, "also show the flat single-slab price")
	calculateCmd.Flags().BoolVarP(&calcDetails, "details", "d", true, "show per-slab breakdown")
	calculateCmd.MarkFlagRequired("users")

	rootCmd.AddCommand(calculateCmd)
}

func runCalculate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	cycle, err := resolveCycle(calcCycle)
	if err != nil {
		return err
	}

	formatter, err := output.New(formatOrDefault(calcFormat))
	if err != nil {
		return err
	}

	c, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	result := pricing.CalculateTieredPricing(c.Slabs(), calcUsers, cycle)
	logging.Debug("Calculated tiered price",
		zap.Int("users", calcUsers),
		zap.String("cycle", string(cycle)),
		zap.Int("lines", len(result.Breakdown)),
		zap.String("total", result.TotalAmount.String()),
	)

	report := &output.PricingReport{
		Users:       calcUsers,
		Cycle:       cycle,
		Currency:    cfg.Pricing.DefaultCurrency,
		Result:      result,
		ShowDetails: calcDetails && cfg.Output.ShowDetails,
	}
	if calcFlat {
		flat := pricing.FlatPricing(c.Slabs(), calcUsers, cycle)
		report.Flat = &flat
	}

	return formatter.RenderPricing(cmd.OutOrStdout(), report)
}

func resolveCycle(raw string) (types.BillingCycle, error) {
	if raw == "" {
		return config.Get().Pricing.DefaultCycle, nil
	}
	cycle, ok := types.ParseBillingCycle(raw)
	if !ok {
		return "", fmt.Errorf("unsupported billing cycle: %s (use monthly or yearly)", raw)
	}
	return cycle, nil
}

func formatOrDefault(format string) string {
	if format == "" {
		return config.Get().Output.DefaultFormat
	}
	return format
}
