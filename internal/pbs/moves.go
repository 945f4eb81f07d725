package pbs

import (
	"strings"

	"github.com/MrWong99/pbsimport/internal/gamedata"
	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/idset"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

var _ Kind = (*MoveKind)(nil)

// MoveRefs are the enumeration sources of [MoveKind]. Nil sources skip
// validation.
type MoveRefs struct {
	Types      idset.Source
	Categories idset.Source
	Targets    idset.Source
}

// MoveKind imports moves.txt.
type MoveKind struct {
	refs MoveRefs
}

// NewMoveKind returns a [MoveKind] validating against refs.
func NewMoveKind(refs MoveRefs) *MoveKind {
	return &MoveKind{refs: refs}
}

// Name implements [Kind].
func (*MoveKind) Name() string { return KindMove }

// Preprocess implements [Kind]. A target of "none" becomes
// [gamedata.NoTarget].
func (*MoveKind) Preprocess(_ string, s *ini.Section) error {
	if v, ok := s.Get("Target"); ok && strings.EqualFold(v, "none") {
		s.Set("Target", gamedata.NoTarget)
	}
	return nil
}

// Schema implements [Kind].
func (k *MoveKind) Schema(*ini.File) schema.Table {
	return schema.Table{
		"Name":         schema.F("RealName", "s"),
		"Type":         schema.F("Type", "e", k.refs.Types),
		"Category":     schema.F("Category", "e", k.refs.Categories),
		"Power":        schema.F("Power", "u"),
		"Accuracy":     schema.F("Accuracy", "u"),
		"TotalPP":      schema.F("TotalPP", "u"),
		"Target":       schema.F("Target", "e", k.refs.Targets),
		"Priority":     schema.F("Priority", "i"),
		"FunctionCode": schema.F("FunctionCode", "s"),
		"Flags":        schema.F("Tags", "*s"),
		"EffectChance": schema.F("EffectChance", "u"),
		"Description":  schema.F("Description", "q"),
	}
}

// FixUp implements [Kind].
func (*MoveKind) FixUp(r *schema.Record, _ schema.Table) error {
	r.SetDefault("RealName", "Unnamed")
	r.SetDefault("Type", "")
	r.SetDefault("Category", "Status")
	r.SetDefault("Power", 0)
	r.SetDefault("Accuracy", 100)
	r.SetDefault("TotalPP", 5)
	r.SetDefault("Target", gamedata.NoTarget)
	r.SetDefault("Priority", 0)
	r.SetDefault("FunctionCode", "")
	r.SetDefault("Tags", emptyList())
	r.SetDefault("EffectChance", 0)
	r.SetDefault("Description", "???")
	return nil
}
