package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/MrWong99/pbsimport/internal/pbs"
)

var _ Stager = (*JSONDir)(nil)

// JSONDir writes each table to <Dir>/<Kind>.json as an indented array of
// record documents in file order.
type JSONDir struct {
	Dir string

	mu     sync.Mutex
	staged map[string]string // kind -> temp file awaiting Commit
}

// NewJSONDir returns a [JSONDir] writing into dir.
func NewJSONDir(dir string) *JSONDir {
	return &JSONDir{Dir: dir}
}

// Name implements [Sink].
func (*JSONDir) Name() string { return "json" }

// Path returns the file a table of kind is written to.
func (d *JSONDir) Path(kind string) string {
	return filepath.Join(d.Dir, kind+".json")
}

// Import implements [Sink]. The document is written to a temporary file and
// renamed into place, so readers never observe a partial file.
func (d *JSONDir) Import(_ context.Context, t *pbs.Table) (int, error) {
	tmp, err := d.writeTemp(t)
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp)
	if err := os.Rename(tmp, d.Path(t.Kind())); err != nil {
		return 0, fmt.Errorf("rename: %w", err)
	}
	return t.Len(), nil
}

// Stage implements [Stager]. The table is written next to its final path
// but only renamed into place by Commit.
func (d *JSONDir) Stage(_ context.Context, t *pbs.Table) (int, error) {
	tmp, err := d.writeTemp(t)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.staged == nil {
		d.staged = make(map[string]string)
	}
	if prev, ok := d.staged[t.Kind()]; ok {
		os.Remove(prev)
	}
	d.staged[t.Kind()] = tmp
	return t.Len(), nil
}

// Commit implements [Stager] by renaming every staged file into place.
func (d *JSONDir) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, kind := range slices.Sorted(maps.Keys(d.staged)) {
		tmp := d.staged[kind]
		if err := os.Rename(tmp, d.Path(kind)); err != nil {
			os.Remove(tmp)
			errs = append(errs, fmt.Errorf("rename %s: %w", kind, err))
		}
	}
	d.staged = nil
	return errors.Join(errs...)
}

// Discard implements [Stager] by deleting every staged file.
func (d *JSONDir) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, tmp := range d.staged {
		os.Remove(tmp)
	}
	d.staged = nil
}

// writeTemp encodes t into a new temporary file in Dir and returns its path.
func (d *JSONDir) writeTemp(t *pbs.Table) (string, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(d.Dir, "."+t.Kind()+"-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close: %w", err)
	}
	return tmp.Name(), nil
}
