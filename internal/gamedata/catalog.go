package gamedata

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/pbsimport/pkg/idset"
)

// Category names a closed vocabulary in a [Catalog].
type Category string

const (
	GenderRatio    Category = "GenderRatio"
	GrowthRate     Category = "GrowthRate"
	EggGroup       Category = "EggGroup"
	BodyColor      Category = "BodyColor"
	BodyShape      Category = "BodyShape"
	Habitat        Category = "Habitat"
	Evolution      Category = "Evolution"
	Target         Category = "Target"
	DamageCategory Category = "DamageCategory"
	FieldUse       Category = "FieldUse"
	BattleUse      Category = "BattleUse"
	TrainerGender  Category = "TrainerGender"
	StatCategory   Category = "Stat"
)

// NoTarget is the move target used when a move has none.
const NoTarget = "NoTarget"

var builtin = map[Category][]string{
	GenderRatio: {
		"AlwaysMale", "AlwaysFemale", "Genderless", "FemaleOneEighth",
		"Female25Percent", "Female50Percent", "Female75Percent", "FemaleSevenEighths",
	},
	GrowthRate: {"Medium", "Erratic", "Fluctuating", "Parabolic", "Fast", "Slow"},
	EggGroup: {
		"Undiscovered", "Monster", "Water1", "Bug", "Flying", "Field", "Fairy",
		"Grass", "Humanlike", "Water3", "Mineral", "Amorphous", "Water2", "Ditto", "Dragon",
	},
	BodyColor: {"Red", "Blue", "Yellow", "Green", "Black", "Brown", "Purple", "Gray", "White", "Pink"},
	BodyShape: {
		"Head", "Serpentine", "Finned", "HeadArms", "HeadBase", "BipedalTail", "HeadLegs",
		"Quadruped", "Winged", "Multiped", "MultiBody", "Bipedal", "MultiWinged", "Insectoid",
	},
	Habitat: {
		"NoHabitat", "Grassland", "Forest", "WatersEdge", "Sea", "Cave", "Mountain",
		"RoughTerrain", "Urban", "Rare",
	},
	Evolution: {
		"SpecialMethod",
		"Level", "LevelMale", "LevelFemale", "LevelDay", "LevelNight", "LevelMorning",
		"LevelAfternoon", "LevelEvening", "LevelNoWeather", "LevelSun", "LevelRain",
		"LevelSnow", "LevelSandstorm", "LevelCycling", "LevelSurfing", "LevelDiving",
		"LevelDarkness", "LevelDarkInParty", "AttackGreater", "AtkDefEqual", "DefenseGreater",
		"Silcoon", "Cascoon", "Ninjask", "Shedinja", "Happiness", "HappinessMale",
		"HappinessFemale", "HappinessDay", "HappinessNight", "HappinessMove",
		"HappinessMoveType", "HappinessHoldItem", "MaxHappiness", "Beauty", "HoldItem",
		"HoldItemMale", "HoldItemFemale", "DayHoldItem", "NightHoldItem", "HoldItemHappiness",
		"HasMove", "HasMoveType", "HasInParty", "Location", "LocationFlag", "Region",
		"Item", "ItemMale", "ItemFemale", "ItemDay", "ItemNight", "ItemHappiness",
		"Trade", "TradeMale", "TradeFemale", "TradeDay", "TradeNight", "TradeItem",
		"TradeSpecies", "BattleDealCriticalHit", "Event", "EventAfterDamageTaken",
	},
	Target: {
		NoTarget, "User", "NearAlly", "UserOrNearAlly", "AllAllies", "UserAndAllies",
		"NearFoe", "RandomNearFoe", "AllNearFoes", "Foe", "AllFoes", "NearOther",
		"AllNearOthers", "Other", "AllBattlers", "UserSide", "FoeSide", "BothSides",
	},
	DamageCategory: {"Physical", "Special", "Status"},
	FieldUse:       {"NoFieldUse", "OnPokemon", "Direct", "TM", "HM", "TR"},
	BattleUse:      {"NoBattleUse", "OnPokemon", "OnMove", "OnBattler", "OnFoe", "Direct"},
	TrainerGender:  {"Male", "Female", "Unknown", "Mixed"},
}

// Catalog supplies the set of valid strings for each [Category]. It starts
// from the built-in vocabularies and may be extended or overridden from YAML:
//
//	replace:
//	  GrowthRate: [Medium, Fast, Slow]
//	extend:
//	  Habitat: [Space]
type Catalog struct {
	sets map[Category]idset.Set
}

// catalogFile is the YAML layout read by [LoadCatalog].
type catalogFile struct {
	Replace map[Category][]string `yaml:"replace"`
	Extend  map[Category][]string `yaml:"extend"`
}

// NewCatalog returns a [Catalog] holding the built-in vocabularies.
func NewCatalog() *Catalog {
	c := &Catalog{sets: make(map[Category]idset.Set, len(builtin)+1)}
	for cat, values := range builtin {
		c.sets[cat] = idset.New(values...)
	}
	c.sets[StatCategory] = StatIDs(Stats())
	return c
}

// LoadCatalog reads a YAML override file and applies it on top of the
// built-in vocabularies.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gamedata: open catalog %q: %w", path, err)
	}
	defer f.Close()

	c, err := LoadCatalogFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("gamedata: parse catalog %q: %w", path, err)
	}
	return c, nil
}

// LoadCatalogFromReader is like [LoadCatalog] but reads from r.
func LoadCatalogFromReader(r io.Reader) (*Catalog, error) {
	var cf catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("gamedata: decode catalog yaml: %w", err)
	}

	c := NewCatalog()
	for cat, values := range cf.Replace {
		c.sets[cat] = idset.New(values...)
	}
	for cat, values := range cf.Extend {
		s, ok := c.sets[cat]
		if !ok {
			s = idset.Set{}
			c.sets[cat] = s
		}
		s.Add(values...)
	}
	return c, nil
}

// Set returns the vocabulary of cat, or nil when the catalog does not know
// the category.
func (c *Catalog) Set(cat Category) idset.Source {
	s, ok := c.sets[cat]
	if !ok {
		return nil
	}
	return s
}

// Categories returns the known categories in ascending order.
func (c *Catalog) Categories() []Category {
	return slices.Sorted(maps.Keys(c.sets))
}
