package pbs

import (
	"fmt"
	"strings"

	"github.com/MrWong99/pbsimport/internal/gamedata"
	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/idset"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

var _ Kind = (*SpeciesKind)(nil)

// specialEvolutionMethod replaces a "none" evolution method.
const specialEvolutionMethod = "SpecialMethod"

// SpeciesRefs are the enumeration sources of [SpeciesKind]. Nil sources skip
// validation.
type SpeciesRefs struct {
	Types        idset.Source
	GenderRatios idset.Source
	GrowthRates  idset.Source
	Abilities    idset.Source
	Moves        idset.Source
	EggGroups    idset.Source
	Items        idset.Source
	BodyColors   idset.Source
	BodyShapes   idset.Source
	Habitats     idset.Source
	Evolutions   idset.Source

	// Stats are the stats BaseStats and EVs are keyed by. The six BaseStats
	// values are assigned in ascending PBS order. Empty means
	// [gamedata.MainStats].
	Stats []gamedata.Stat
}

// SpeciesKind imports pokemon.txt.
type SpeciesKind struct {
	refs    SpeciesRefs
	ordered []gamedata.Stat
	statIDs idset.Set
}

// NewSpeciesKind returns a [SpeciesKind] validating against refs.
func NewSpeciesKind(refs SpeciesRefs) *SpeciesKind {
	if len(refs.Stats) == 0 {
		refs.Stats = gamedata.MainStats()
	}
	return &SpeciesKind{
		refs:    refs,
		ordered: gamedata.SortByPBSOrder(refs.Stats),
		statIDs: gamedata.StatIDs(refs.Stats),
	}
}

// Name implements [Kind].
func (*SpeciesKind) Name() string { return KindSpecies }

// Preprocess implements [Kind]. An evolution method written as "none"
// becomes SpecialMethod.
func (*SpeciesKind) Preprocess(_ string, s *ini.Section) error {
	v, ok := s.Get("Evolutions")
	if !ok {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := 1; i < len(parts); i += 3 {
		if strings.EqualFold(parts[i], "none") {
			parts[i] = specialEvolutionMethod
		}
	}
	s.Set("Evolutions", strings.Join(parts, ","))
	return nil
}

// Schema implements [Kind]. Offspring and evolution targets reference the
// other species of the same file.
func (k *SpeciesKind) Schema(f *ini.File) schema.Table {
	self := idset.NewLazy(f.Keys)
	r := k.refs
	return schema.Table{
		"Name":             schema.F("RealName", "s"),
		"FormName":         schema.F("FormName", "q"),
		"Types":            schema.F("Types", "*e", r.Types),
		"BaseStats":        schema.F("BaseStats", "vvvvvv"),
		"GenderRatio":      schema.F("GenderRatio", "e", r.GenderRatios),
		"GrowthRate":       schema.F("GrowthRate", "e", r.GrowthRates),
		"BaseExp":          schema.F("BaseExp", "v"),
		"EVs":              schema.F("EVs", "*ev", k.statIDs),
		"CatchRate":        schema.F("CatchRate", "u"),
		"Happiness":        schema.F("Happiness", "u"),
		"Abilities":        schema.F("Abilities", "*e", r.Abilities),
		"HiddenAbilities":  schema.F("HiddenAbilities", "*e", r.Abilities),
		"Moves":            schema.F("Moves", "*ue", nil, r.Moves),
		"TutorMoves":       schema.F("TutorMoves", "*e", r.Moves),
		"EggMoves":         schema.F("EggMoves", "*e", r.Moves),
		"EggGroups":        schema.F("EggGroups", "*e", r.EggGroups),
		"HatchSteps":       schema.F("HatchSteps", "v"),
		"Incense":          schema.F("Incense", "e", r.Items),
		"Offspring":        schema.F("Offspring", "*e", self),
		"Height":           schema.F("Height", "f"),
		"Weight":           schema.F("Weight", "f"),
		"Color":            schema.F("Color", "e", r.BodyColors),
		"Shape":            schema.F("Shape", "e", r.BodyShapes),
		"Habitat":          schema.F("Habitat", "e", r.Habitats),
		"Category":         schema.F("Category", "s"),
		"Pokedex":          schema.F("PokedexEntry", "q"),
		"Generation":       schema.F("Generation", "i"),
		"Flags":            schema.F("Tags", "*s"),
		"WildItemCommon":   schema.F("WildItemCommon", "*e", r.Items),
		"WildItemUncommon": schema.F("WildItemUncommon", "*e", r.Items),
		"WildItemRare":     schema.F("WildItemRare", "*e", r.Items),
		"Evolutions":       schema.F("Evolutions", "^seS", self, r.Evolutions),
	}
}

// FixUp implements [Kind].
func (k *SpeciesKind) FixUp(r *schema.Record, _ schema.Table) error {
	r.SetDefault("RealName", "Unnamed")
	r.SetDefault("FormName", "")
	r.SetDefault("Category", "???")
	r.SetDefault("PokedexEntry", "???")
	r.SetDefault("Types", []any{"NORMAL"})

	base, err := k.baseStats(r)
	if err != nil {
		return err
	}
	r.Set("BaseStats", base)

	evs, err := k.effortValues(r)
	if err != nil {
		return err
	}
	r.Set("EVs", evs)

	r.SetDefault("BaseExp", 100)
	r.SetDefault("GrowthRate", "Medium")
	r.SetDefault("GenderRatio", "Female50Percent")
	r.SetDefault("CatchRate", 255)
	r.SetDefault("Happiness", 70)

	moves, err := tuples(r, "Moves")
	if err != nil {
		return err
	}
	r.Set("Moves", rows(moves, "Level", "Move"))

	r.SetDefault("TutorMoves", emptyList())
	r.SetDefault("EggMoves", emptyList())
	r.SetDefault("Abilities", emptyList())
	r.SetDefault("HiddenAbilities", emptyList())
	r.SetDefault("WildItemCommon", emptyList())
	r.SetDefault("WildItemUncommon", emptyList())
	r.SetDefault("WildItemRare", emptyList())
	r.SetDefault("EggGroups", []any{"Undiscovered"})
	r.SetDefault("HatchSteps", 1)
	r.SetDefault("Incense", "")
	r.SetDefault("Offspring", emptyList())

	evolutions, err := list(r, "Evolutions")
	if err != nil {
		return err
	}
	r.Set("Evolutions", rows(chunk(evolutions, 3), "Species", "Method", "Parameter"))

	r.SetDefault("Height", 1.0)
	r.SetDefault("Weight", 1.0)
	r.SetDefault("Color", "Red")
	r.SetDefault("Shape", "Head")
	r.SetDefault("Habitat", "NoHabitat")
	r.SetDefault("Generation", 0)
	r.SetDefault("Tags", emptyList())
	return nil
}

// baseStats maps the positional BaseStats values onto stat IDs in PBS order.
// Every stat ends up present; missing or non-positive values become 1.
func (k *SpeciesKind) baseStats(r *schema.Record) (map[string]int, error) {
	values, err := list(r, "BaseStats")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(k.ordered))
	for i, v := range values {
		if i >= len(k.ordered) {
			break
		}
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("BaseStats[%d]: expected an integer, got %T", i, v)
		}
		out[k.ordered[i].ID] = n
	}
	for _, s := range k.refs.Stats {
		if out[s.ID] <= 0 {
			out[s.ID] = 1
		}
	}
	return out, nil
}

// effortValues turns the (stat, amount) pairs of EVs into a map. Every stat
// ends up present; missing or negative values become 0.
func (k *SpeciesKind) effortValues(r *schema.Record) (map[string]int, error) {
	pairs, err := tuples(r, "EVs")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(k.refs.Stats))
	for i, p := range pairs {
		id, ok1 := p[0].(string)
		n, ok2 := p[1].(int)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("EVs[%d]: expected a stat and an integer, got %T, %T", i, p[0], p[1])
		}
		out[id] = n
	}
	for _, s := range k.refs.Stats {
		if v, ok := out[s.ID]; !ok || v < 0 {
			out[s.ID] = 0
		}
	}
	return out, nil
}
