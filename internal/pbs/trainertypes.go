package pbs

import (
	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/idset"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

var _ Kind = (*TrainerTypeKind)(nil)

// TrainerTypeKind imports trainer_types.txt.
type TrainerTypeKind struct {
	genders idset.Source
}

// NewTrainerTypeKind returns a [TrainerTypeKind] validating Gender against
// genders. A nil source skips validation.
func NewTrainerTypeKind(genders idset.Source) *TrainerTypeKind {
	return &TrainerTypeKind{genders: genders}
}

// Name implements [Kind].
func (*TrainerTypeKind) Name() string { return KindTrainerType }

// Preprocess implements [Kind]. Trainer types have no raw rewrites.
func (*TrainerTypeKind) Preprocess(string, *ini.Section) error { return nil }

// Schema implements [Kind].
func (k *TrainerTypeKind) Schema(*ini.File) schema.Table {
	return schema.Table{
		"Name":       schema.F("RealName", "s"),
		"Gender":     schema.F("Gender", "e", k.genders),
		"BaseMoney":  schema.F("BaseMoney", "u"),
		"SkillLevel": schema.F("SkillLevel", "u"),
		"Flags":      schema.F("Tags", "*s"),
		"IntroBGM":   schema.F("IntroBGM", "s"),
		"BattleBGM":  schema.F("BattleBGM", "s"),
		"VictoryBGM": schema.F("VictoryBGM", "s"),
	}
}

// FixUp implements [Kind]. SkillLevel defaults to BaseMoney; music fields
// default to null.
func (*TrainerTypeKind) FixUp(r *schema.Record, _ schema.Table) error {
	r.SetDefault("RealName", "Unnamed")
	r.SetDefault("Gender", "Unknown")
	r.SetDefault("BaseMoney", 30)
	money, _ := r.Get("BaseMoney")
	r.SetDefault("SkillLevel", money)
	r.SetDefault("Tags", emptyList())
	r.SetDefault("IntroBGM", nil)
	r.SetDefault("BattleBGM", nil)
	r.SetDefault("VictoryBGM", nil)
	return nil
}
