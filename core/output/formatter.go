// Package output provides output formatting for pricing results and quotes.
// This package produces human and machine-readable outputs.
// It is the only place amounts are rounded.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"slab-pricing/core/catalog"
	"slab-pricing/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// RenderPricing writes a tiered pricing result
	RenderPricing(w io.Writer, r *PricingReport) error

	// RenderQuote writes a subscription quote
	RenderQuote(w io.Writer, q *types.Quote, currency types.Currency) error

	// RenderIssues writes catalog validation findings
	RenderIssues(w io.Writer, issues []catalog.Issue) error
}

// PricingReport is a pricing result with the inputs that produced it
type PricingReport struct {
	Users       int                  `json:"users"`
	Cycle       types.BillingCycle   `json:"billing_cycle"`
	Currency    types.Currency       `json:"currency"`
	Result      types.PricingResult  `json:"result"`
	Flat        *types.PricingResult `json:"flat,omitempty"`
	ShowDetails bool                 `json:"-"`
}

// Money renders an amount rounded to 2 places
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// New returns the formatter for a format name
func New(format string) (Formatter, error) {
	switch Format(strings.ToLower(format)) {
	case FormatCLI, "":
		return &CLIFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatMarkdown, "md":
		return &MarkdownFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (use cli, json, markdown)", format)
	}
}

// CLIFormatter renders aligned tables
type CLIFormatter struct{}

// Format returns the format type
func (f *CLIFormatter) Format() Format { return FormatCLI }

// RenderPricing writes the breakdown table and total
func (f *CLIFormatter) RenderPricing(w io.Writer, r *PricingReport) error {
	fmt.Fprintf(w, "Users: %d    Cycle: %s\n\n", r.Users, r.Cycle)

	if r.ShowDetails && len(r.Result.Breakdown) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "SLAB\tRANGE\tUSERS\tPRICE/USER\tTOTAL\t")
		for _, li := range r.Result.Breakdown {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n",
				slabLabel(li), rangeLabel(li.Slab), li.Users, Money(li.PricePerUser), Money(li.Total))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %s %s\n", Money(r.Result.TotalAmount), r.Currency)
	if r.Flat != nil && !r.Flat.TotalAmount.Equal(r.Result.TotalAmount) {
		fmt.Fprintf(w, "Flat-rate equivalent: %s %s\n", Money(r.Flat.TotalAmount), r.Currency)
	}
	return nil
}

// RenderQuote writes the quote summary
func (f *CLIFormatter) RenderQuote(w io.Writer, q *types.Quote, currency types.Currency) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Quote\t%s\n", q.ID)
	fmt.Fprintf(tw, "Kind\t%s\n", q.Kind)
	fmt.Fprintf(tw, "Users\t%d (%s)\n", q.Users, q.Cycle)
	fmt.Fprintf(tw, "Period\t%s to %s\n", q.PeriodStart.Format("2006-01-02"), q.PeriodEnd.Format("2006-01-02"))
	fmt.Fprintf(tw, "Subtotal\t%s %s\n", Money(q.Pricing.TotalAmount), currency)
	if !q.ProrationCredit.IsZero() {
		fmt.Fprintf(tw, "Proration credit\t-%s\n", Money(q.ProrationCredit))
	}
	if !q.WalletApplied.IsZero() {
		fmt.Fprintf(tw, "Wallet applied\t-%s\n", Money(q.WalletApplied))
	}
	fmt.Fprintf(tw, "Amount due\t%s %s\n", Money(q.AmountDue), currency)
	fmt.Fprintf(tw, "Wallet remaining\t%s\n", Money(q.WalletRemaining))
	return tw.Flush()
}

// RenderIssues writes one line per issue
func (f *CLIFormatter) RenderIssues(w io.Writer, issues []catalog.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "✓ Catalog is valid")
		return err
	}
	for _, i := range issues {
		mark := "⚠"
		if i.Severity == catalog.SeverityError {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, i)
	}
	return nil
}

// JSONFormatter renders indented JSON
type JSONFormatter struct{}

// Format returns the format type
func (f *JSONFormatter) Format() Format { return FormatJSON }

// RenderPricing writes the report as JSON
func (f *JSONFormatter) RenderPricing(w io.Writer, r *PricingReport) error {
	return writeJSON(w, r)
}

// RenderQuote writes the quote as JSON
func (f *JSONFormatter) RenderQuote(w io.Writer, q *types.Quote, currency types.Currency) error {
	return writeJSON(w, struct {
		*types.Quote
		Currency types.Currency `json:"currency"`
	}{q, currency})
}

// RenderIssues writes the issues as JSON
func (f *JSONFormatter) RenderIssues(w io.Writer, issues []catalog.Issue) error {
	if issues == nil {
		issues = []catalog.Issue{}
	}
	return writeJSON(w, map[string]interface{}{
		"valid":  !catalog.HasErrors(issues),
		"issues": issues,
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// MarkdownFormatter renders tables for PR comments and docs
type MarkdownFormatter struct{}

// Format returns the format type
func (f *MarkdownFormatter) Format() Format { return FormatMarkdown }

// RenderPricing writes a markdown table
func (f *MarkdownFormatter) RenderPricing(w io.Writer, r *PricingReport) error {
	fmt.Fprintf(w, "### %d users, %s\n\n", r.Users, r.Cycle)
	fmt.Fprintln(w, "| Slab | Range | Users | Price/User | Total |")
	fmt.Fprintln(w, "|---|---|---:|---:|---:|")
	for _, li := range r.Result.Breakdown {
		fmt.Fprintf(w, "| %s | %s | %d | %s | %s |\n",
			slabLabel(li), rangeLabel(li.Slab), li.Users, Money(li.PricePerUser), Money(li.Total))
	}
	_, err := fmt.Fprintf(w, "\n**Total: %s %s**\n", Money(r.Result.TotalAmount), r.Currency)
	return err
}

// RenderQuote writes a markdown summary
func (f *MarkdownFormatter) RenderQuote(w io.Writer, q *types.Quote, currency types.Currency) error {
	fmt.Fprintf(w, "### Quote `%s` (%s)\n\n", q.ID, q.Kind)
	fmt.Fprintln(w, "| | Amount |")
	fmt.Fprintln(w, "|---|---:|")
	fmt.Fprintf(w, "| Subtotal | %s |\n", Money(q.Pricing.TotalAmount))
	fmt.Fprintf(w, "| Proration credit | -%s |\n", Money(q.ProrationCredit))
	fmt.Fprintf(w, "| Wallet applied | -%s |\n", Money(q.WalletApplied))
	_, err := fmt.Fprintf(w, "| **Amount due** | **%s %s** |\n", Money(q.AmountDue), currency)
	return err
}

// RenderIssues writes a bullet list
func (f *MarkdownFormatter) RenderIssues(w io.Writer, issues []catalog.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "Catalog is valid.")
		return err
	}
	for _, i := range issues {
		fmt.Fprintf(w, "- **%s** %s\n", i.Severity, strings.TrimPrefix(i.String(), string(i.Severity)+": "))
	}
	return nil
}

func slabLabel(li types.LineItem) string {
	name := li.Slab.Name
	if name == "" {
		name = li.Slab.ID
	}
	if li.Overflow {
		return name + " (overflow)"
	}
	return name
}

func rangeLabel(s types.Slab) string {
	return fmt.Sprintf("%d-%d", s.MinUsers, s.MaxUsers)
}
