package pbs

import (
	"slices"

	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/idset"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

var _ Kind = (*ItemKind)(nil)

// keyItemFlag marks key items in an item's Flags.
const keyItemFlag = "KeyItem"

// ItemRefs are the enumeration sources of [ItemKind]. Nil sources skip
// validation.
type ItemRefs struct {
	Moves      idset.Source
	FieldUses  idset.Source
	BattleUses idset.Source
}

// ItemKind imports items.txt.
type ItemKind struct {
	refs ItemRefs
}

// NewItemKind returns an [ItemKind] validating against refs.
func NewItemKind(refs ItemRefs) *ItemKind {
	return &ItemKind{refs: refs}
}

// Name implements [Kind].
func (*ItemKind) Name() string { return KindItem }

// Preprocess implements [Kind]. Items have no raw rewrites.
func (*ItemKind) Preprocess(string, *ini.Section) error { return nil }

// Schema implements [Kind].
func (k *ItemKind) Schema(*ini.File) schema.Table {
	return schema.Table{
		"Name":              schema.F("RealName", "s"),
		"NamePlural":        schema.F("RealNamePlural", "s"),
		"PortionName":       schema.F("RealPortionName", "s"),
		"PortionNamePlural": schema.F("RealPortionNamePlural", "s"),
		"Pocket":            schema.F("Pocket", "v"),
		"Price":             schema.F("Price", "u"),
		"SellPrice":         schema.F("SellPrice", "u"),
		"BPPrice":           schema.F("BPPrice", "u"),
		"FieldUse":          schema.F("FieldUse", "e", k.refs.FieldUses),
		"BattleUse":         schema.F("BattleUse", "e", k.refs.BattleUses),
		"Flags":             schema.F("Tags", "*s"),
		"Consumable":        schema.F("Consumable", "b"),
		"ShowQuantity":      schema.F("ShowQuantity", "b"),
		"Move":              schema.F("Move", "e", k.refs.Moves),
		"Description":       schema.F("Description", "q"),
	}
}

// FixUp implements [Kind]. SellPrice defaults to half of Price, and
// Consumable is derived from the flags and field use: key items, TMs and
// HMs are not consumed.
func (*ItemKind) FixUp(r *schema.Record, _ schema.Table) error {
	r.SetDefault("RealName", "Unnamed")
	r.SetDefault("RealNamePlural", "Unnamed")
	r.SetDefault("RealPortionName", "")
	r.SetDefault("RealPortionNamePlural", "")
	r.SetDefault("Pocket", 1)
	r.SetDefault("Price", 0)
	price, _ := r.Int("Price")
	r.SetDefault("SellPrice", price/2)
	r.SetDefault("BPPrice", 1)
	r.SetDefault("FieldUse", "NoFieldUse")
	r.SetDefault("BattleUse", "NoBattleUse")
	r.SetDefault("Tags", emptyList())

	isKeyItem := slices.Contains(r.Strings("Tags"), keyItemFlag)
	fieldUse := r.String("FieldUse")
	isTM := fieldUse == "TM"
	isHM := fieldUse == "HM"
	r.SetDefault("Consumable", !(isKeyItem || isTM || isHM))

	r.SetDefault("ShowQuantity", true)
	r.SetDefault("Move", "")
	r.SetDefault("Description", "???")
	return nil
}
