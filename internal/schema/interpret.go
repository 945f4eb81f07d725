package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrWong99/pbsimport/pkg/idset"
)

var (
	// Letters, digits and underscore only; combining marks are not word
	// characters.
	identRE      = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)
	intLiteralRE = regexp.MustCompile(`^-?\d+$`)
)

// Interpreter converts raw field values into typed values.
// The zero value is ready to use and logs through [slog.Default].
type Interpreter struct {
	// Logger receives the warning emitted for enumerated values that have no
	// enumeration source to validate against. Nil means [slog.Default].
	Logger *slog.Logger

	// OnUnvalidated, when set, is called with every enumerated value that
	// passed through without validation.
	OnUnvalidated func(value string)
}

var defaultInterpreter Interpreter

// Interpret converts raw according to pattern using the zero [Interpreter].
func Interpret(raw, pattern string, enums []idset.Source) (any, error) {
	return defaultInterpreter.Interpret(raw, pattern, enums)
}

// Interpret converts raw according to pattern. enums is indexed by type code
// position, counting the codes of the pattern left to right and ignoring the
// '*' and '^' markers; missing or nil entries mean "no enumeration".
//
// The result is a scalar for a single-code pattern without markers, a
// [][]any for a repeated group of more than one code, and a []any otherwise.
func (in *Interpreter) Interpret(raw, pattern string, enums []idset.Source) (any, error) {
	p, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return in.Apply(raw, p, enums)
}

// Apply converts raw according to a compiled pattern. See [Interpreter.Interpret].
func (in *Interpreter) Apply(raw string, p Pattern, enums []idset.Source) (any, error) {
	w := walker{in: in, raw: raw, values: splitValues(raw), enums: enums}

	switch p.Mode {
	case ModeSingle:
		rec, _, err := w.group(p.Lead, 0)
		if err != nil {
			return nil, err
		}
		if p.Scalar() {
			return rec[0], nil
		}
		return rec, nil

	case ModeRepeat:
		if p.Subarrays() {
			var out [][]any
			for !w.done() {
				rec, err := w.fullGroup(p.Group, 0)
				if err != nil {
					return nil, err
				}
				out = append(out, rec)
			}
			return out, nil
		}
		var out []any
		for !w.done() {
			rec, err := w.fullGroup(p.Group, 0)
			if err != nil {
				return nil, err
			}
			out = append(out, rec...)
		}
		return out, nil

	default:
		out, err := w.fullGroup(p.Lead, 0)
		if err != nil {
			return nil, err
		}
		for !w.done() {
			rec, err := w.fullGroup(p.Group, len(p.Lead))
			if err != nil {
				return nil, err
			}
			out = append(out, rec...)
		}
		return out, nil
	}
}

// walker tracks the position inside the split values of one raw value.
type walker struct {
	in     *Interpreter
	raw    string
	values []slot
	cur    int
	enums  []idset.Source
}

func (w *walker) done() bool { return w.cur >= len(w.values) }

// fullGroup parses one group and fails if the values ran out before every
// mandatory code was filled.
func (w *walker) fullGroup(codes []Code, enumOffset int) ([]any, error) {
	rec, complete, err := w.group(codes, enumOffset)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, fmt.Errorf("%w: expected %d values per group, got %d", ErrIncompleteGroup, len(codes), len(rec))
	}
	return rec, nil
}

// group parses codes from the current position. complete is false when the
// values ran out at a mandatory code; the values parsed so far are returned.
// A q code takes the rest of the raw value and ends the group.
func (w *walker) group(codes []Code, enumOffset int) (rec []any, complete bool, err error) {
	rec = make([]any, 0, len(codes))
	for i, c := range codes {
		if w.done() {
			if !c.Optional {
				return rec, false, nil
			}
			rec = append(rec, nil)
			continue
		}

		v := w.values[w.cur]
		w.cur++

		if c.Optional && v.text == "" {
			rec = append(rec, nil)
			continue
		}
		if c.Kind == 'q' {
			rec = append(rec, w.raw[v.start:])
			w.cur = len(w.values)
			return rec, true, nil
		}

		val, err := w.in.convert(v.text, c.Kind, w.enum(enumOffset+i))
		if err != nil {
			return nil, false, err
		}
		rec = append(rec, val)
	}
	return rec, true, nil
}

func (w *walker) enum(i int) idset.Source {
	if i < len(w.enums) {
		return w.enums[i]
	}
	return nil
}

// convert interprets one value with a lower-case type code.
func (in *Interpreter) convert(value string, kind byte, enum idset.Source) (any, error) {
	switch kind {
	case 'i':
		return parseInt(value, 10)
	case 'u':
		n, err := parseInt(value, 10)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNegativeNotAllowed, n)
		}
		return n, nil
	case 'v':
		n, err := parseInt(value, 10)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrNotPositive, n)
		}
		return n, nil
	case 'x':
		return parseInt(value, 16)
	case 'f':
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", ErrMalformedNumber, value)
		}
		return f, nil
	case 'b':
		// Any non-empty value is true, including the text "false".
		return value != "", nil
	case 'n':
		if !isIdentifier(value) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, value)
		}
		return value, nil
	case 's', 'q', 'm':
		return value, nil
	case 'e':
		return in.checkEnum(value, enum)
	case 'y':
		if intLiteralRE.MatchString(value) {
			return parseInt(value, 10)
		}
		return in.checkEnum(value, enum)
	}
	return nil, fmt.Errorf("%w: unknown type code %q", ErrBadPattern, kind)
}

// checkEnum validates value against enum. A nil enum skips validation with a
// warning.
func (in *Interpreter) checkEnum(value string, enum idset.Source) (string, error) {
	if enum == nil {
		in.logger().Warn("schema: enumerated value has no enumeration to validate against; validation skipped",
			"value", value)
		if in.OnUnvalidated != nil {
			in.OnUnvalidated(value)
		}
		return value, nil
	}

	ok, err := enum.Contains(value)
	if err != nil {
		return "", fmt.Errorf("schema: enumeration lookup for %q: %w", value, err)
	}
	if ok {
		return value, nil
	}

	members, err := enum.Members()
	if err != nil {
		return "", fmt.Errorf("schema: enumeration lookup for %q: %w", value, err)
	}
	if s := suggest(value, members); s != "" {
		return "", fmt.Errorf("%w %q (did you mean %q?)", ErrUndefinedEnumValue, value, s)
	}
	return "", fmt.Errorf("%w %q", ErrUndefinedEnumValue, value)
}

func (in *Interpreter) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}

// parseInt parses a signed integer in base, accepting surrounding spaces
// and, for base 16, a 0x prefix.
func parseInt(value string, base int) (int, error) {
	s := strings.TrimSpace(value)
	if base == 16 {
		sign := ""
		if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
			sign, s = s[:1], s[1:]
		}
		if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
			s = s[2:]
		}
		s = sign + s
	}
	n, err := strconv.ParseInt(s, base, 0)
	if errors.Is(err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %q is out of the int range", ErrMalformedNumber, value)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a base-%d integer", ErrMalformedNumber, value, base)
	}
	return int(n), nil
}

func isIdentifier(value string) bool {
	if !identRE.MatchString(value) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(value)
	return !unicode.IsDigit(r)
}
