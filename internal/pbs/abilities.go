package pbs

import (
	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

var _ Kind = AbilityKind{}

// AbilityKind imports abilities.txt.
type AbilityKind struct{}

// Name implements [Kind].
func (AbilityKind) Name() string { return KindAbility }

// Preprocess implements [Kind]. Abilities have no raw rewrites.
func (AbilityKind) Preprocess(string, *ini.Section) error { return nil }

// Schema implements [Kind].
func (AbilityKind) Schema(*ini.File) schema.Table {
	return schema.Table{
		"Name":        schema.F("RealName", "s"),
		"Description": schema.F("Description", "q"),
		"Flags":       schema.F("Tags", "*s"),
	}
}

// FixUp implements [Kind].
func (AbilityKind) FixUp(r *schema.Record, _ schema.Table) error {
	r.SetDefault("RealName", "Unnamed")
	r.SetDefault("Description", "")
	r.SetDefault("Tags", emptyList())
	return nil
}
