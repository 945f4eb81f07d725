// Package watch polls a set of input files and reports when their content
// changes.
package watch

import (
	"context"
	"crypto/sha256"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 2 * time.Second

// fileState is the last observed state of one file. A file that does not
// exist has the zero state.
type fileState struct {
	exists bool
	mtime  time.Time
	size   int64
	hash   [sha256.Size]byte
}

// Watcher polls files for changes. It uses polling (not fsnotify) so that it
// behaves the same on network mounts and in containers.
type Watcher struct {
	paths    []string
	interval time.Duration
	onChange func(ctx context.Context, changed []string)

	mu     sync.Mutex
	states map[string]fileState
}

// Option configures a [Watcher].
type Option func(*Watcher)

// WithInterval sets the polling interval. The default is [DefaultInterval].
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// New creates a watcher over paths and records their current state, so that
// only later modifications are reported. onChange receives the changed
// paths in the order they were given.
func New(paths []string, onChange func(ctx context.Context, changed []string), opts ...Option) *Watcher {
	w := &Watcher{
		paths:    slices.Clone(paths),
		interval: DefaultInterval,
		onChange: onChange,
		states:   make(map[string]fileState, len(paths)),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, p := range w.paths {
		st, err := stat(p, fileState{})
		if err != nil {
			slog.Warn("watch: cannot read file", "path", p, "err", err)
		}
		w.states[p] = st
	}
	return w
}

// Run polls until ctx is cancelled and then returns ctx.Err(). onChange is
// called synchronously; polling pauses while it runs.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if changed := w.Check(); len(changed) > 0 && w.onChange != nil {
				slog.Info("watch: input files changed", "paths", changed)
				w.onChange(ctx, changed)
			}
		}
	}
}

// Check compares every file against its last observed state and returns the
// paths whose content changed, appeared or disappeared. A file that is only
// touched is not reported.
func (w *Watcher) Check() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for _, p := range w.paths {
		prev := w.states[p]
		st, err := stat(p, prev)
		if err != nil {
			slog.Warn("watch: cannot read file", "path", p, "err", err)
			continue
		}
		w.states[p] = st
		if st.exists != prev.exists || st.hash != prev.hash {
			changed = append(changed, p)
		}
	}
	return changed
}

// stat returns the state of path. The file is only hashed when its mtime or
// size differ from prev.
func stat(path string, prev fileState) (fileState, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileState{}, nil
	}
	if err != nil {
		return prev, err
	}

	st := fileState{exists: true, mtime: info.ModTime(), size: info.Size()}
	if prev.exists && st.mtime.Equal(prev.mtime) && st.size == prev.size {
		st.hash = prev.hash
		return st, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prev, err
	}
	st.hash = sha256.Sum256(data)
	return st, nil
}
