// Package catalog - Catalog validation
// Reports catalog shape problems. The calculator tolerates all of
// them, so validation informs operators rather than blocking pricing.
package catalog

import (
	"fmt"

	"slab-pricing/core/types"
)

// Severity ranks a validation issue
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue is a single validation finding
type Issue struct {
	Severity Severity `json:"severity"`
	SlabID   string   `json:"slab_id,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.SlabID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: slab %s: %s", i.Severity, i.SlabID, i.Message)
}

// ValidationRule checks a single slab
type ValidationRule func(types.Slab) *Issue

// DefaultValidationRules returns the standard per-slab rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateRange,
		validatePrices,
		validateBonusMultiplier,
	}
}

// Validate runs per-slab rules and the catalog-wide checks.
// Catalog-wide checks cover duplicate IDs, gaps and overlaps.
func (c *Catalog) Validate(rules []ValidationRule) []Issue {
	var issues []Issue

	if c.IsEmpty() {
		return []Issue{{Severity: SeverityError, Message: "catalog has no slabs"}}
	}

	seen := make(map[string]bool, len(c.slabs))
	for _, s := range c.slabs {
		if seen[s.ID] {
			issues = append(issues, Issue{Severity: SeverityError, SlabID: s.ID, Message: "duplicate slab id"})
		}
		seen[s.ID] = true

		for _, rule := range rules {
			if issue := rule(s); issue != nil {
				issues = append(issues, *issue)
			}
		}
	}

	return append(issues, c.contiguityIssues()...)
}

// HasErrors reports whether any issue is an error
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// contiguityIssues walks well-formed slabs in order looking for
// gaps and overlaps between neighbours.
func (c *Catalog) contiguityIssues() []Issue {
	var issues []Issue
	var prev *types.Slab

	if first, ok := c.firstWellFormed(); ok && first.MinUsers > 1 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			SlabID:   first.ID,
			Message:  fmt.Sprintf("users 1-%d are not covered by any slab", first.MinUsers-1),
		})
	}

	for i := range c.slabs {
		s := c.slabs[i]
		if !s.IsWellFormed() {
			continue
		}
		if prev != nil {
			switch {
			case s.MinUsers > prev.MaxUsers+1:
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					SlabID:   s.ID,
					Message:  fmt.Sprintf("gap of users %d-%d after slab %s", prev.MaxUsers+1, s.MinUsers-1, prev.ID),
				})
			case s.MinUsers <= prev.MaxUsers:
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					SlabID:   s.ID,
					Message:  fmt.Sprintf("overlaps slab %s on users %d-%d", prev.ID, s.MinUsers, minInt(prev.MaxUsers, s.MaxUsers)),
				})
			}
		}
		prev = &c.slabs[i]
	}

	return issues
}

func (c *Catalog) firstWellFormed() (types.Slab, bool) {
	for _, s := range c.slabs {
		if s.IsWellFormed() {
			return s, true
		}
	}
	return types.Slab{}, false
}

// validateRange flags inverted or negative ranges
func validateRange(s types.Slab) *Issue {
	if s.MinUsers < 0 {
		return &Issue{Severity: SeverityError, SlabID: s.ID, Message: "min_users is negative"}
	}
	if s.MaxUsers < s.MinUsers {
		return &Issue{Severity: SeverityError, SlabID: s.ID, Message: fmt.Sprintf("max_users %d is below min_users %d", s.MaxUsers, s.MinUsers)}
	}
	return nil
}

// validatePrices flags negative prices, which price as zero
func validatePrices(s types.Slab) *Issue {
	if s.MonthlyPrice.IsNegative() || s.YearlyPrice.IsNegative() {
		return &Issue{Severity: SeverityError, SlabID: s.ID, Message: "negative price will be billed as zero"}
	}
	if s.MonthlyPrice.IsZero() && s.YearlyPrice.IsZero() {
		return &Issue{Severity: SeverityWarning, SlabID: s.ID, Message: "slab has no monthly or yearly price"}
	}
	return nil
}

// validateBonusMultiplier flags a negative free-external-users multiplier
func validateBonusMultiplier(s types.Slab) *Issue {
	if s.FreeExternalUsersPerInternalUser < 0 {
		return &Issue{Severity: SeverityError, SlabID: s.ID, Message: "free_external_users_per_internal_user is negative"}
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
