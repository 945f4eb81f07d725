// Package pbs turns tokenized PBS files into tables of typed, defaulted
// records, one [Kind] per entity file.
//
// Entity kinds depend on each other's identifiers and must be imported in
// [Order]: types, moves, items, abilities, species, trainer types. A kind
// receives the identifier sets of the kinds it references through its
// constructor; the sets may be [idset.Lazy] values that are only bound once
// the referenced kind has been loaded.
package pbs

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MrWong99/pbsimport/internal/schema"
	"github.com/MrWong99/pbsimport/pkg/idset"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

// Kind names.
const (
	KindType        = "Type"
	KindMove        = "Move"
	KindItem        = "Item"
	KindAbility     = "Ability"
	KindSpecies     = "Species"
	KindTrainerType = "TrainerType"
)

// Order is the dependency order in which entity kinds must be loaded.
var Order = []string{KindType, KindMove, KindItem, KindAbility, KindSpecies, KindTrainerType}

// Kind supplies the entity-specific parts of the import of one PBS file.
type Kind interface {
	// Name returns the kind name, one of the Kind* constants.
	Name() string

	// Preprocess rewrites raw values of a section before interpretation.
	Preprocess(id string, s *ini.Section) error

	// Schema builds the field table for f. It is called once per file and
	// may capture f, for fields that reference sibling sections.
	Schema(f *ini.File) schema.Table

	// FixUp fills absent fields with defaults and restructures interpreted
	// values into their final shape.
	FixUp(r *schema.Record, t schema.Table) error
}

// Option configures [Load].
type Option func(*loader)

type loader struct {
	in *schema.Interpreter
}

// WithInterpreter sets the interpreter used to convert raw values. The
// default is the zero [schema.Interpreter].
func WithInterpreter(in *schema.Interpreter) Option {
	return func(l *loader) {
		if in != nil {
			l.in = in
		}
	}
}

// Load imports every section of f as a record of kind. Sections are
// processed in file order; the first failure aborts the import.
func Load(kind Kind, f *ini.File, opts ...Option) (*Table, error) {
	l := &loader{in: &schema.Interpreter{}}
	for _, opt := range opts {
		opt(l)
	}

	st := kind.Schema(f)
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("pbs: %s schema: %w", kind.Name(), err)
	}

	t := &Table{kind: kind.Name(), records: make([]*schema.Record, 0, f.Len())}
	for _, s := range f.Sections() {
		if err := kind.Preprocess(s.ID, s); err != nil {
			return nil, fmt.Errorf("pbs: %s [%s]: preprocess: %w", kind.Name(), s.ID, err)
		}
		r, err := l.in.BuildRecord(s.ID, s, st)
		if err != nil {
			return nil, fmt.Errorf("pbs: %s: %w", kind.Name(), err)
		}
		if err := kind.FixUp(r, st); err != nil {
			return nil, fmt.Errorf("pbs: %s [%s]: fix-up: %w", kind.Name(), s.ID, err)
		}
		t.records = append(t.records, r)
	}
	return t, nil
}

// LoadReader tokenizes r and imports it as kind.
func LoadReader(kind Kind, r io.Reader, opts ...Option) (*Table, error) {
	f, err := ini.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("pbs: %s: %w", kind.Name(), err)
	}
	return Load(kind, f, opts...)
}

// LoadFile tokenizes the file at path and imports it as kind.
func LoadFile(kind Kind, path string, opts ...Option) (*Table, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("pbs: %s: %w", kind.Name(), err)
	}
	return Load(kind, f, opts...)
}

// Table is the ordered result of importing one PBS file. It is read-only
// once returned by [Load].
type Table struct {
	kind    string
	records []*schema.Record
}

// Kind returns the name of the entity kind the table holds.
func (t *Table) Kind() string { return t.kind }

// Records returns the records in file order.
func (t *Table) Records() []*schema.Record {
	return append([]*schema.Record(nil), t.records...)
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// IDs returns the Name of every record as a set, for use as an enumeration
// source by dependent kinds.
func (t *Table) IDs() idset.Set {
	ids := make(idset.Set, len(t.records))
	for _, r := range t.records {
		ids.Add(r.Name())
	}
	return ids
}

// MarshalJSON encodes the table as a JSON array of records in file order.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.records)
}
