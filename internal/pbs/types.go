package pbs

import (
	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/idset"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

var _ Kind = TypeKind{}

// TypeKind imports types.txt. Type relations reference the other sections
// of the same file.
type TypeKind struct{}

// Name implements [Kind].
func (TypeKind) Name() string { return KindType }

// Preprocess implements [Kind]. Types have no raw rewrites.
func (TypeKind) Preprocess(string, *ini.Section) error { return nil }

// Schema implements [Kind].
func (TypeKind) Schema(f *ini.File) schema.Table {
	self := idset.NewLazy(f.Keys)
	return schema.Table{
		"Name":          schema.F("RealName", "s"),
		"IconPosition":  schema.F("IconPosition", "u"),
		"IsSpecialType": schema.F("IsSpecialType", "b"),
		"IsPseudoType":  schema.F("IsPseudoType", "b"),
		"Weaknesses":    schema.F("Weaknesses", "*e", self),
		"Resistances":   schema.F("Resistances", "*e", self),
		"Immunities":    schema.F("Immunities", "*e", self),
		"Flags":         schema.F("Tags", "*s"),
	}
}

// FixUp implements [Kind].
func (TypeKind) FixUp(r *schema.Record, _ schema.Table) error {
	r.SetDefault("RealName", "Unnamed")
	r.SetDefault("IconPosition", 0)
	r.SetDefault("IsSpecialType", false)
	r.SetDefault("IsPseudoType", false)
	r.SetDefault("Weaknesses", emptyList())
	r.SetDefault("Resistances", emptyList())
	r.SetDefault("Immunities", emptyList())
	r.SetDefault("Tags", emptyList())
	return nil
}
