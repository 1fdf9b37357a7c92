// Package catalog - Raw slab ingestion
// Upstream catalogs send numbers as numbers, strings or null.
// Coercion happens here so the calculator only ever sees typed slabs.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"slab-pricing/core/types"
	"slab-pricing/internal/errors"
)

// FlexNumber accepts a JSON/YAML number, numeric string, or null
type FlexNumber struct {
	raw string
	set bool
}

// Num builds a set FlexNumber from its textual form
func Num(s string) FlexNumber {
	s = strings.TrimSpace(s)
	return FlexNumber{raw: s, set: s != ""}
}

// UnmarshalJSON implements json.Unmarshaler
func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = FlexNumber{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	*n = Num(s)
	return nil
}

// MarshalJSON implements json.Marshaler
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (n *FlexNumber) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar number", node.Line)
	}
	if node.Tag == "!!null" {
		*n = FlexNumber{}
		return nil
	}
	*n = Num(node.Value)
	return nil
}

// IsSet reports whether a non-null value was present
func (n FlexNumber) IsSet() bool {
	return n.set
}

// Decimal returns the value, or zero when unset
func (n FlexNumber) Decimal() (decimal.Decimal, error) {
	if !n.set {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.raw)
}

var (
	minIntDecimal = decimal.NewFromInt(math.MinInt)
	maxIntDecimal = decimal.NewFromInt(math.MaxInt)
)

// Int returns the value as an integer, or zero when unset
func (n FlexNumber) Int() (int, error) {
	d, err := n.Decimal()
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%s is not a whole number", n.raw)
	}
	if d.LessThan(minIntDecimal) || d.GreaterThan(maxIntDecimal) {
		return 0, fmt.Errorf("%s is out of range", n.raw)
	}
	return int(d.IntPart()), nil
}

// FlexString accepts a JSON/YAML string or number
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(b []byte) error {
	text := strings.TrimSpace(string(b))
	if text == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		text = str
	}
	*s = FlexString(strings.TrimSpace(text))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (s *FlexString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar id", node.Line)
	}
	if node.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = FlexString(strings.TrimSpace(node.Value))
	return nil
}

// RawSlab is a slab record as served by upstream catalogs
type RawSlab struct {
	ID                               FlexString `json:"id" yaml:"id"`
	Name                             string     `json:"name" yaml:"name"`
	MinUsers                         FlexNumber `json:"min_users" yaml:"min_users"`
	MaxUsers                         FlexNumber `json:"max_users" yaml:"max_users"`
	MonthlyPrice                     FlexNumber `json:"monthly_price" yaml:"monthly_price"`
	YearlyPrice                      FlexNumber `json:"yearly_price" yaml:"yearly_price"`
	FreeExternalUsersPerInternalUser FlexNumber `json:"free_external_users_per_internal_user" yaml:"free_external_users_per_internal_user"`
}

// Typed coerces the record into a types.Slab.
// Missing prices become zero; missing ranges are rejected.
func (r RawSlab) Typed() (types.Slab, error) {
	slab := types.Slab{
		ID:   string(r.ID),
		Name: r.Name,
	}
	if slab.ID == "" {
		return slab, errors.Input("slab is missing id")
	}
	if slab.Name == "" {
		slab.Name = slab.ID
	}

	var err error
	if slab.MinUsers, err = requiredInt(slab.ID, "min_users", r.MinUsers); err != nil {
		return slab, err
	}
	if slab.MaxUsers, err = requiredInt(slab.ID, "max_users", r.MaxUsers); err != nil {
		return slab, err
	}
	if slab.MonthlyPrice, err = price(slab.ID, "monthly_price", r.MonthlyPrice); err != nil {
		return slab, err
	}
	if slab.YearlyPrice, err = price(slab.ID, "yearly_price", r.YearlyPrice); err != nil {
		return slab, err
	}
	if slab.FreeExternalUsersPerInternalUser, err = r.FreeExternalUsersPerInternalUser.Int(); err != nil {
		return slab, fieldError(slab.ID, "free_external_users_per_internal_user", err)
	}

	return slab, nil
}

// TypedAll coerces every record, stopping at the first failure
func TypedAll(raw []RawSlab) ([]types.Slab, error) {
	slabs := make([]types.Slab, 0, len(raw))
	for i, r := range raw {
		s, err := r.Typed()
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				return nil, e.WithContext("index", i)
			}
			return nil, err
		}
		slabs = append(slabs, s)
	}
	return slabs, nil
}

// FromTyped converts slabs back to raw records for re-encoding
func FromTyped(slabs []types.Slab) []RawSlab {
	out := make([]RawSlab, 0, len(slabs))
	for _, s := range slabs {
		out = append(out, RawSlab{
			ID:                               FlexString(s.ID),
			Name:                             s.Name,
			MinUsers:                         Num(fmt.Sprint(s.MinUsers)),
			MaxUsers:                         Num(fmt.Sprint(s.MaxUsers)),
			MonthlyPrice:                     Num(s.MonthlyPrice.String()),
			YearlyPrice:                      Num(s.YearlyPrice.String()),
			FreeExternalUsersPerInternalUser: Num(fmt.Sprint(s.FreeExternalUsersPerInternalUser)),
		})
	}
	return out
}

func requiredInt(id, field string, n FlexNumber) (int, error) {
	if !n.IsSet() {
		return 0, errors.Newf(errors.TypeInput, "slab %s is missing %s", id, field).WithContext("field", field)
	}
	v, err := n.Int()
	if err != nil {
		return 0, fieldError(id, field, err)
	}
	return v, nil
}

func price(id, field string, n FlexNumber) (decimal.Decimal, error) {
	d, err := n.Decimal()
	if err != nil {
		return decimal.Zero, fieldError(id, field, err)
	}
	return d, nil
}

func fieldError(id, field string, cause error) error {
	return errors.Wrapf(errors.TypeInput, cause, "slab %s has invalid %s", id, field).WithContext("field", field)
}
