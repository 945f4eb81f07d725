// Package pipeline imports a set of PBS files in dependency order.
//
// Every entity kind is constructed before any file is read. References to
// the identifiers of another kind are [idset.Lazy] sets that are bound as
// soon as the referenced kind's table is complete, so a kind never needs to
// know whether its dependencies were loaded before or after it was built.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/MrWong99/pbsimport/internal/gamedata"
	"github.com/MrWong99/pbsimport/internal/observe"
	"github.com/MrWong99/pbsimport/internal/pbs"
	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/idset"
)

// Options configures [Run].
type Options struct {
	// Paths maps entity kinds to the PBS file to import. Kinds without a
	// path are skipped; fields referencing them are not validated.
	Paths map[string]string

	// Catalog supplies the closed vocabularies. Nil means the built-in
	// [gamedata.NewCatalog].
	Catalog *gamedata.Catalog

	// Stats are the stats species BaseStats and EVs are keyed by. Empty
	// means [gamedata.MainStats].
	Stats []gamedata.Stat

	// Metrics receives parse metrics. Nil means [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// KindResult is the outcome of importing one entity kind.
type KindResult struct {
	Kind     string
	Path     string
	Records  int
	Duration time.Duration
	Err      error
}

// Result holds the tables of one run in dependency order.
type Result struct {
	Tables []*pbs.Table
	Kinds  []KindResult
}

// Table returns the table of kind, if it was imported.
func (r *Result) Table(kind string) (*pbs.Table, bool) {
	for _, t := range r.Tables {
		if t.Kind() == kind {
			return t, true
		}
	}
	return nil, false
}

// Records returns the total number of records across all tables. A nil
// Result has none.
func (r *Result) Records() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, t := range r.Tables {
		n += t.Len()
	}
	return n
}

// Run imports every kind of opts.Paths in [pbs.Order]. The first failing
// kind aborts the run; the returned [Result] then holds the tables imported
// so far and the failing kind's [KindResult].
func Run(ctx context.Context, opts Options) (res *Result, err error) {
	if opts.Catalog == nil {
		opts.Catalog = gamedata.NewCatalog()
	}
	if opts.Metrics == nil {
		opts.Metrics = observe.DefaultMetrics()
	}

	ctx, span := observe.StartImport(ctx, len(opts.Paths))
	defer func() {
		opts.Metrics.RecordRun(ctx, err)
		observe.EndSpan(span, res.Records(), err)
	}()

	refs := newRefs(opts.Paths)
	kinds := buildKinds(refs, opts)
	res = &Result{}

	for _, name := range pbs.Order {
		path, ok := opts.Paths[name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("pipeline: %w", err)
		}

		table, kr := load(ctx, kinds[name], path, opts.Metrics)
		res.Kinds = append(res.Kinds, kr)
		if kr.Err != nil {
			return res, kr.Err
		}
		res.Tables = append(res.Tables, table)

		if l := refs[name]; l != nil {
			if err := l.Bind(func() idset.Set { return table.IDs() }); err != nil {
				return res, fmt.Errorf("pipeline: bind %s identifiers: %w", name, err)
			}
		}
	}

	observe.Logger(ctx).Info("pbs import complete",
		"kinds", len(res.Tables),
		"records", res.Records(),
	)
	return res, nil
}

// load imports one file, recording a span and parse metrics.
func load(ctx context.Context, kind pbs.Kind, path string, m *observe.Metrics) (*pbs.Table, KindResult) {
	name := kind.Name()
	ctx, span, log := observe.StartLoad(ctx, name, path)

	in := &schema.Interpreter{
		Logger:        log,
		OnUnvalidated: func(string) { m.RecordUnvalidated(ctx, name) },
	}

	start := time.Now()
	table, err := pbs.LoadFile(kind, path, pbs.WithInterpreter(in))
	kr := KindResult{Kind: name, Path: path, Duration: time.Since(start), Err: err}
	if err == nil {
		kr.Records = table.Len()
	}

	m.RecordParse(ctx, name, kr.Records, kr.Duration, err)
	observe.EndSpan(span, kr.Records, err)

	if err != nil {
		log.Error("pbs import failed", "err", err)
		return nil, kr
	}
	log.Debug("pbs file imported", "records", kr.Records, "duration", kr.Duration)
	return table, kr
}

// newRefs returns one unbound identifier set per kind that will be
// imported.
func newRefs(paths map[string]string) map[string]*idset.Lazy {
	refs := make(map[string]*idset.Lazy, len(paths))
	for kind := range paths {
		refs[kind] = idset.NewLazy(nil)
	}
	return refs
}

// source returns the identifier set of kind, or a nil [idset.Source] when
// kind is not imported.
func source(refs map[string]*idset.Lazy, kind string) idset.Source {
	if l, ok := refs[kind]; ok {
		return l
	}
	return nil
}

// buildKinds constructs every entity kind with its enumeration sources.
func buildKinds(refs map[string]*idset.Lazy, opts Options) map[string]pbs.Kind {
	c := opts.Catalog
	return map[string]pbs.Kind{
		pbs.KindType: pbs.TypeKind{},
		pbs.KindMove: pbs.NewMoveKind(pbs.MoveRefs{
			Types:      source(refs, pbs.KindType),
			Categories: c.Set(gamedata.DamageCategory),
			Targets:    c.Set(gamedata.Target),
		}),
		pbs.KindItem: pbs.NewItemKind(pbs.ItemRefs{
			Moves:      source(refs, pbs.KindMove),
			FieldUses:  c.Set(gamedata.FieldUse),
			BattleUses: c.Set(gamedata.BattleUse),
		}),
		pbs.KindAbility: pbs.AbilityKind{},
		pbs.KindSpecies: pbs.NewSpeciesKind(pbs.SpeciesRefs{
			Types:        source(refs, pbs.KindType),
			GenderRatios: c.Set(gamedata.GenderRatio),
			GrowthRates:  c.Set(gamedata.GrowthRate),
			Abilities:    source(refs, pbs.KindAbility),
			Moves:        source(refs, pbs.KindMove),
			EggGroups:    c.Set(gamedata.EggGroup),
			Items:        source(refs, pbs.KindItem),
			BodyColors:   c.Set(gamedata.BodyColor),
			BodyShapes:   c.Set(gamedata.BodyShape),
			Habitats:     c.Set(gamedata.Habitat),
			Evolutions:   c.Set(gamedata.Evolution),
			Stats:        opts.Stats,
		}),
		pbs.KindTrainerType: pbs.NewTrainerTypeKind(c.Set(gamedata.TrainerGender)),
	}
}
