package schema

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects how a [Pattern] walks the comma-separated values of a field.
type Mode int

const (
	// ModeSingle parses the codes once from the start of the value.
	ModeSingle Mode = iota

	// ModeRepeat parses the codes as a group, repeatedly, until the values
	// are exhausted. Selected by a leading '*'.
	ModeRepeat

	// ModeTrailing parses the codes before '^' once and then repeats the
	// codes after it until the values are exhausted.
	ModeTrailing
)

// validCodes lists every recognised type code in lower case.
const validCodes = "iuvxfbnsqmey"

// Code is one type code of a [Pattern].
type Code struct {
	// Kind is the lower-case type code.
	Kind byte

	// Optional is set for upper-case codes: an empty slot becomes nil.
	Optional bool
}

// Pattern is a compiled type pattern.
type Pattern struct {
	// Source is the pattern text as written in the schema.
	Source string

	Mode Mode

	// Lead holds the codes parsed once (ModeSingle, and the fixed part of
	// ModeTrailing).
	Lead []Code

	// Group holds the repeated codes (ModeRepeat, ModeTrailing).
	Group []Code
}

// Compile parses a type pattern.
func Compile(pattern string) (Pattern, error) {
	p := Pattern{Source: pattern}
	body := pattern

	switch {
	case strings.HasPrefix(body, "*"):
		p.Mode = ModeRepeat
		body = body[1:]
	case strings.Contains(body, "^"):
		p.Mode = ModeTrailing
	}

	var lead, group string
	switch p.Mode {
	case ModeSingle:
		lead = body
	case ModeRepeat:
		group = body
	case ModeTrailing:
		lead, group, _ = strings.Cut(body, "^")
		if group == "" {
			return Pattern{}, fmt.Errorf("%w %q: '^' must be followed by a group", ErrBadPattern, pattern)
		}
	}

	var err error
	if p.Lead, err = compileCodes(pattern, lead); err != nil {
		return Pattern{}, err
	}
	if p.Group, err = compileCodes(pattern, group); err != nil {
		return Pattern{}, err
	}
	if len(p.Lead)+len(p.Group) == 0 {
		return Pattern{}, fmt.Errorf("%w %q: no type codes", ErrBadPattern, pattern)
	}
	return p, nil
}

// MustCompile is like [Compile] but panics on error. Intended for patterns
// written as literals.
func MustCompile(pattern string) Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

func compileCodes(pattern, codes string) ([]Code, error) {
	if codes == "" {
		return nil, nil
	}
	out := make([]Code, 0, len(codes))
	for i := 0; i < len(codes); i++ {
		c := codes[i]
		lower := byte(unicode.ToLower(rune(c)))
		if !strings.ContainsRune(validCodes, rune(lower)) {
			return nil, fmt.Errorf("%w %q: unknown type code %q", ErrBadPattern, pattern, c)
		}
		out = append(out, Code{Kind: lower, Optional: c != lower})
	}
	return out, nil
}

// Width returns the number of type codes in p, which is also the number of
// enumeration slots a [Field] may carry.
func (p Pattern) Width() int { return len(p.Lead) + len(p.Group) }

// Subarrays reports whether p produces one tuple per repetition instead of
// a flat sequence.
func (p Pattern) Subarrays() bool {
	return p.Mode == ModeRepeat && len(p.Group) > 1
}

// Scalar reports whether p produces a single value rather than a sequence.
func (p Pattern) Scalar() bool {
	return p.Mode == ModeSingle && len(p.Lead) == 1
}
