package schema

import (
	"fmt"
	"slices"

	"github.com/MrWong99/pbsimport/pkg/idset"
	"github.com/MrWong99/pbsimport/pkg/ini"
)

// Field is the schema entry of one raw field name.
type Field struct {
	// Target is the record field the interpreted value is written to.
	Target string

	// Pattern is the type pattern, see the package documentation.
	Pattern string

	// Enums holds one enumeration source per type code position; nil
	// entries and missing trailing entries mean "no enumeration".
	Enums []idset.Source
}

// F is shorthand for building a [Field].
func F(target, pattern string, enums ...idset.Source) Field {
	return Field{Target: target, Pattern: pattern, Enums: enums}
}

// Table maps raw field names to their [Field] schema.
type Table map[string]Field

// Validate compiles every pattern of t and checks that no field carries more
// enumeration slots than it has type codes.
func (t Table) Validate() error {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		f := t[k]
		p, err := Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("schema: field %s: %w", k, err)
		}
		if len(f.Enums) > p.Width() {
			return fmt.Errorf("schema: field %s: %w %q: %d enumerations for %d type codes",
				k, ErrBadPattern, f.Pattern, len(f.Enums), p.Width())
		}
	}
	return nil
}

// BuildRecord interprets the raw fields of section with the zero
// [Interpreter]. See [Interpreter.BuildRecord].
func BuildRecord(id string, section *ini.Section, t Table) (*Record, error) {
	return defaultInterpreter.BuildRecord(id, section, t)
}

// BuildRecord interprets every raw field of section according to t. The
// record starts with ID and Name set to id; fields absent from section are
// absent from the record. A raw key with no schema entry fails with
// [ErrUnknownField]. Any failure is returned as a [*FieldError].
func (in *Interpreter) BuildRecord(id string, section *ini.Section, t Table) (*Record, error) {
	r := NewRecord()
	r.Set("ID", id)
	r.Set("Name", id)

	for _, key := range section.Keys() {
		raw, _ := section.Get(key)
		f, ok := t[key]
		if !ok {
			err := ErrUnknownField
			if s := suggest(key, tableKeys(t)); s != "" {
				err = fmt.Errorf("%w (did you mean %q?)", ErrUnknownField, s)
			}
			return nil, &FieldError{Section: id, Field: key, Value: raw, Err: err}
		}

		v, err := in.Interpret(raw, f.Pattern, f.Enums)
		if err != nil {
			return nil, &FieldError{Section: id, Field: key, Value: raw, Err: err}
		}
		r.Set(f.Target, v)
	}
	return r, nil
}

func tableKeys(t Table) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return keys
}
