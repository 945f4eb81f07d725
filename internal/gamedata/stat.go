// Package gamedata holds the hard-coded game enumerations that PBS files are
// validated against: stats, gender ratios, growth rates, egg groups and the
// other closed vocabularies of the data model.
package gamedata

import (
	"slices"

	"github.com/MrWong99/pbsimport/pkg/idset"
)

// StatType categorises a [Stat].
type StatType int

const (
	// StatMain is a main stat that cannot change in battle.
	StatMain StatType = iota

	// StatMainBattle is a main stat that can be raised or lowered in battle.
	StatMainBattle

	// StatBattle exists only in battle and is not part of a species' stats.
	StatBattle
)

// Stat describes one statistic.
type Stat struct {
	// ID is the identifier used in PBS files and record keys.
	ID string

	// Name is the display name.
	Name string

	// Brief is the short display name.
	Brief string

	Type StatType

	// PBSOrder is the position of the stat in PBS stat lists such as
	// BaseStats. It is -1 for battle-only stats.
	PBSOrder int
}

// IsMain reports whether s is part of a species' stats.
func (s Stat) IsMain() bool { return s.Type == StatMain || s.Type == StatMainBattle }

var stats = []Stat{
	{ID: "HP", Name: "HP", Brief: "HP", Type: StatMain, PBSOrder: 0},
	{ID: "ATTACK", Name: "Attack", Brief: "Atk", Type: StatMainBattle, PBSOrder: 1},
	{ID: "DEFENSE", Name: "Defense", Brief: "Def", Type: StatMainBattle, PBSOrder: 2},
	{ID: "SPECIAL_ATTACK", Name: "Special Attack", Brief: "SpAtk", Type: StatMainBattle, PBSOrder: 4},
	{ID: "SPECIAL_DEFENSE", Name: "Special Defense", Brief: "SpDef", Type: StatMainBattle, PBSOrder: 5},
	{ID: "SPEED", Name: "Speed", Brief: "Spd", Type: StatMainBattle, PBSOrder: 3},
	{ID: "ACCURACY", Name: "Accuracy", Brief: "Acc", Type: StatBattle, PBSOrder: -1},
	{ID: "EVASION", Name: "Evasion", Brief: "Eva", Type: StatBattle, PBSOrder: -1},
}

// Stats returns every stat in declaration order.
func Stats() []Stat { return slices.Clone(stats) }

// MainStats returns the stats that make up a species' base stats, in
// declaration order.
func MainStats() []Stat {
	out := make([]Stat, 0, 6)
	for _, s := range stats {
		if s.IsMain() {
			out = append(out, s)
		}
	}
	return out
}

// LookupStat returns the stat with the given ID.
func LookupStat(id string) (Stat, bool) {
	i := slices.IndexFunc(stats, func(s Stat) bool { return s.ID == id })
	if i < 0 {
		return Stat{}, false
	}
	return stats[i], true
}

// SortByPBSOrder returns a copy of s sorted by ascending PBS order.
func SortByPBSOrder(s []Stat) []Stat {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(a, b Stat) int { return a.PBSOrder - b.PBSOrder })
	return out
}

// StatIDs returns the IDs of s as a set.
func StatIDs(s []Stat) idset.Set {
	ids := make(idset.Set, len(s))
	for _, st := range s {
		ids.Add(st.ID)
	}
	return ids
}
