// Package cmd - quote command
package cmd

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"slab-pricing/core/output"
	"slab-pricing/core/pricing"
	"slab-pricing/core/types"
	"slab-pricing/internal/config"
)

var (
	quoteUsers    int
	quoteCycle    string
	quoteWallet   string
	quoteFormat   string
	quoteCurUsers int
	quoteCurCycle string
	quoteCurPaid  string
	quoteCurStart string
	quoteCurEnd   string
	quoteAt       string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote a purchase, upgrade, downgrade or renewal",
	Long: `Price a subscription change. When a current subscription is given,
the unused share of its period is credited, then the wallet balance is
applied to what remains.

Dates use YYYY-MM-DD. Without --current-start/--current-end the current
period is assumed to have started today.

Examples:
  slab-pricing quote --users 10
  slab-pricing quote --users 12 --wallet 50 \
      --current-users 5 --current-paid 500 \
      --current-start 2026-03-01 --current-end 2026-04-01`,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().IntVarP(&quoteUsers, "users", "u", 0, "requested number of users [REQUIRED]")
	quoteCmd.Flags().StringVar(&quoteCycle, "cycle", "", "requested billing cycle (monthly, yearly)")
	quoteCmd.Flags().StringVar(&quoteWallet, "wallet", "0", "wallet balance available")
	quoteCmd.Flags().StringVarP(&quoteFormat, "format", "f", "", "output format (cli, json, markdown)")
	quoteCmd.Flags().IntVar(&quoteCurUsers, "current-users", 0, "users on the current subscription (0 = none)")
	quoteCmd.Flags().StringVar(&quoteCurCycle, "current-cycle", "", "current billing cycle; defaults to --cycle")
	quoteCmd.Flags().StringVar(&quoteCurPaid, "current-paid", "0", "amount paid for the current period")
	quoteCmd.Flags().StringVar(&quoteCurStart, "current-start", "", "current period start (YYYY-MM-DD)")
	quoteCmd.Flags().StringVar(&quoteCurEnd, "current-end", "", "current period end (YYYY-MM-DD)")
	quoteCmd.Flags().StringVar(&quoteAt, "at", "", "quote date (YYYY-MM-DD); default now")
	quoteCmd.MarkFlagRequired("users")

	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	cycle, err := resolveCycle(quoteCycle)
	if err != nil {
		return err
	}

	wallet, err := decimal.NewFromString(quoteWallet)
	if err != nil {
		return fmt.Errorf("invalid --wallet: %w", err)
	}

	at := time.Now().UTC()
	if quoteAt != "" {
		if at, err = parseDate("at", quoteAt); err != nil {
			return err
		}
	}

	current, err := currentSubscription(cycle, at)
	if err != nil {
		return err
	}

	formatter, err := output.New(formatOrDefault(quoteFormat))
	if err != nil {
		return err
	}

	c, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	quote, err := pricing.BuildQuote(pricing.QuoteRequest{
		Slabs:         c.Slabs(),
		Users:         quoteUsers,
		Cycle:         cycle,
		Current:       current,
		WalletBalance: wallet,
		At:            at,
	})
	if err != nil {
		return err
	}

	return formatter.RenderQuote(cmd.OutOrStdout(), quote, config.Get().Pricing.DefaultCurrency)
}

// currentSubscription builds the current plan from flags, or nil
func currentSubscription(requested types.BillingCycle, at time.Time) (*types.Subscription, error) {
	if quoteCurUsers <= 0 {
		return nil, nil
	}

	cycle := requested
	if quoteCurCycle != "" {
		c, ok := types.ParseBillingCycle(quoteCurCycle)
		if !ok {
			return nil, fmt.Errorf("unsupported --current-cycle: %s", quoteCurCycle)
		}
		cycle = c
	}

	paid, err := decimal.NewFromString(quoteCurPaid)
	if err != nil {
		return nil, fmt.Errorf("invalid --current-paid: %w", err)
	}

	start := at
	if quoteCurStart != "" {
		if start, err = parseDate("current-start", quoteCurStart); err != nil {
			return nil, err
		}
	}
	end := pricing.PeriodEnd(start, cycle)
	if quoteCurEnd != "" {
		if end, err = parseDate("current-end", quoteCurEnd); err != nil {
			return nil, err
		}
	}

	return &types.Subscription{
		Users:       quoteCurUsers,
		Cycle:       cycle,
		AmountPaid:  paid,
		PeriodStart: start,
		PeriodEnd:   end,
	}, nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", flag, value)
	}
	return t, nil
}
