// Package catalog - Catalog file formats
package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"

	"slab-pricing/internal/errors"
)

// Format is a catalog file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatForPath picks a format from the file extension
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".hcl":
		return FormatHCL, true
	default:
		return "", false
	}
}

// envelope covers the wrapped shapes REST catalogs return
type envelope struct {
	Data  []RawSlab `json:"data" yaml:"data"`
	Slabs []RawSlab `json:"slabs" yaml:"slabs"`
}

func (e envelope) records() []RawSlab {
	if len(e.Data) > 0 {
		return e.Data
	}
	return e.Slabs
}

// DecodeJSON accepts a bare array, {"data": [...]} or {"slabs": [...]}
func DecodeJSON(data []byte) ([]RawSlab, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New(errors.TypeParsing, "catalog is empty")
	}

	if trimmed[0] == '[' {
		var raw []RawSlab
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, errors.Parsing("decode json catalog", err)
		}
		return raw, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.Parsing("decode json catalog", err)
	}
	return env.records(), nil
}

// DecodeYAML accepts a bare sequence or a data/slabs mapping
func DecodeYAML(data []byte) ([]RawSlab, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Parsing("decode yaml catalog", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New(errors.TypeParsing, "catalog is empty")
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var raw []RawSlab
		if err := root.Decode(&raw); err != nil {
			return nil, errors.Parsing("decode yaml catalog", err)
		}
		return raw, nil
	}

	var env envelope
	if err := root.Decode(&env); err != nil {
		return nil, errors.Parsing("decode yaml catalog", err)
	}
	return env.records(), nil
}

// hclCatalog is the HCL form:
//
//	slab "starter" {
//	  min_users     = 1
//	  max_users     = 5
//	  monthly_price = 100
//	}
type hclCatalog struct {
	Slabs []hclSlab `hcl:"slab,block"`
}

type hclSlab struct {
	ID           string  `hcl:"id,label"`
	Name         *string `hcl:"name,optional"`
	MinUsers     int     `hcl:"min_users"`
	MaxUsers     int     `hcl:"max_users"`
	MonthlyPrice *string `hcl:"monthly_price,optional"`
	YearlyPrice  *string `hcl:"yearly_price,optional"`
	FreeExternal *int    `hcl:"free_external_users_per_internal_user,optional"`
}

// DecodeHCL parses slab blocks. Numeric prices are read as strings so
// no precision is lost on the way to decimal.
func DecodeHCL(data []byte, filename string) ([]RawSlab, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing("parse hcl catalog", diags)
	}

	var cat hclCatalog
	if diags := gohcl.DecodeBody(file.Body, nil, &cat); diags.HasErrors() {
		return nil, errors.Parsing("decode hcl catalog", diags)
	}

	raw := make([]RawSlab, 0, len(cat.Slabs))
	for _, s := range cat.Slabs {
		r := RawSlab{
			ID:       FlexString(s.ID),
			MinUsers: Num(strconv.Itoa(s.MinUsers)),
			MaxUsers: Num(strconv.Itoa(s.MaxUsers)),
		}
		if s.Name != nil {
			r.Name = *s.Name
		}
		if s.MonthlyPrice != nil {
			r.MonthlyPrice = Num(*s.MonthlyPrice)
		}
		if s.YearlyPrice != nil {
			r.YearlyPrice = Num(*s.YearlyPrice)
		}
		if s.FreeExternal != nil {
			r.FreeExternalUsersPerInternalUser = Num(strconv.Itoa(*s.FreeExternal))
		}
		raw = append(raw, r)
	}
	return raw, nil
}

// Decode dispatches on format and returns a typed catalog
func Decode(data []byte, format Format, filename string) (*Catalog, error) {
	var (
		raw []RawSlab
		err error
	)
	switch format {
	case FormatJSON:
		raw, err = DecodeJSON(data)
	case FormatYAML:
		raw, err = DecodeYAML(data)
	case FormatHCL:
		raw, err = DecodeHCL(data, filename)
	default:
		return nil, errors.Newf(errors.TypeInput, "unsupported catalog format: %q", format)
	}
	if err != nil {
		return nil, err
	}

	slabs, err := TypedAll(raw)
	if err != nil {
		return nil, err
	}
	return New(slabs), nil
}

// LoadFile reads a catalog, choosing the decoder by extension
func LoadFile(path string) (*Catalog, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return nil, errors.Newf(errors.TypeInput, "cannot tell catalog format from %s (want .json, .yaml, .yml or .hcl)", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("catalog file", path)
		}
		return nil, errors.Catalog("read catalog file", err)
	}

	return Decode(data, format, path)
}

// EncodeJSON writes the catalog in the canonical JSON array form
func (c *Catalog) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(FromTyped(c.slabs), "", "  ")
}
