// Package ini tokenizes PBS text files into ordered sections of raw
// key/value pairs.
//
// The format is line based:
//
//	# comment
//	[REPEL]
//	Name = Repel
//	Flags = Repel,Fling_30
//
// Parsing is permissive: lines that are neither comments, section headers nor
// key/value pairs are dropped, as are key/value pairs that appear before the
// first section header. All type checking happens later, in the schema layer.
package ini

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/MrWong99/pbsimport/pkg/idset"
)

var (
	headerRE = regexp.MustCompile(`^\[(\w+)\]\s*$`)
	fieldRE  = regexp.MustCompile(`^(\w+)\s*=\s*(.*)$`)
)

// Section is one bracketed record of a PBS file: its identifier and the raw,
// untyped field values in file order.
type Section struct {
	// ID is the section header without brackets.
	ID string

	fields *orderedmap.OrderedMap[string, string]
}

func newSection(id string) *Section {
	return &Section{ID: id, fields: orderedmap.New[string, string]()}
}

// Get returns the raw value of key and whether it is present.
func (s *Section) Get(key string) (string, bool) {
	return s.fields.Get(key)
}

// Set stores a raw value. A new key is appended after the existing ones;
// an existing key keeps its position.
func (s *Section) Set(key, value string) {
	s.fields.Set(key, value)
}

// Keys returns the raw field names in insertion order.
func (s *Section) Keys() []string {
	keys := make([]string, 0, s.fields.Len())
	for p := s.fields.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Len returns the number of raw fields.
func (s *Section) Len() int { return s.fields.Len() }

// File is a tokenized PBS file.
type File struct {
	order    []string
	sections map[string]*Section
}

// Parse reads PBS text from r. The reader is consumed entirely; the caller is
// responsible for closing it.
func Parse(r io.Reader) (*File, error) {
	f := &File{sections: make(map[string]*Section)}
	var current *Section

	// bufio.Reader has no line length limit, so a long line never aborts
	// the parse.
	br := bufio.NewReader(r)
	for first := true; ; first = false {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if first {
				line = strings.TrimPrefix(line, "\ufeff")
			}
			current = f.line(current, line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ini: read: %w", err)
		}
	}
	return f, nil
}

// line applies one line to f and returns the section that is current after
// it.
func (f *File) line(current *Section, line string) *Section {
	if strings.HasPrefix(line, "#") {
		return current
	}
	if m := headerRE.FindStringSubmatch(line); m != nil {
		return f.open(m[1])
	}
	if m := fieldRE.FindStringSubmatch(line); m != nil && current != nil {
		current.Set(m[1], strings.TrimSpace(m[2]))
	}
	return current
}

// Load reads and tokenizes the PBS file at path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ini: open %q: %w", path, err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("ini: parse %q: %w", path, err)
	}
	return f, nil
}

// open starts a section with no fields. A repeated header keeps the
// section's first position in file order but discards the fields read
// under the earlier header.
func (f *File) open(id string) *Section {
	if _, ok := f.sections[id]; !ok {
		f.order = append(f.order, id)
	}
	s := newSection(id)
	f.sections[id] = s
	return s
}

// Section returns the section with the given identifier.
func (f *File) Section(id string) (*Section, bool) {
	s, ok := f.sections[id]
	return s, ok
}

// Sections returns every section in file order.
func (f *File) Sections() []*Section {
	out := make([]*Section, len(f.order))
	for i, id := range f.order {
		out[i] = f.sections[id]
	}
	return out
}

// IDs returns the section identifiers in file order.
func (f *File) IDs() []string {
	return append([]string(nil), f.order...)
}

// Keys returns the section identifiers as a set, for fields whose valid
// values are the sibling sections of the same file.
func (f *File) Keys() idset.Set {
	return idset.New(f.order...)
}

// Len returns the number of sections.
func (f *File) Len() int { return len(f.order) }
