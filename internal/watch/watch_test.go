package watch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/pbsimport/internal/watch"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	types := filepath.Join(dir, "types.txt")
	moves := filepath.Join(dir, "moves.txt")
	writeFile(t, types, "[NORMAL]\n")

	w := watch.New([]string{types, moves}, nil)
	if got := w.Check(); len(got) != 0 {
		t.Fatalf("initial Check = %v, want no changes", got)
	}

	// Same content with a new mtime is not a change.
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(types, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if got := w.Check(); len(got) != 0 {
		t.Errorf("Check after touch = %v, want no changes", got)
	}

	writeFile(t, types, "[NORMAL]\n[FIRE]\n")
	writeFile(t, moves, "[TACKLE]\n")
	if got := w.Check(); !slices.Equal(got, []string{types, moves}) {
		t.Errorf("Check after edit = %v, want [%s %s]", got, types, moves)
	}
	if got := w.Check(); len(got) != 0 {
		t.Errorf("second Check = %v, want no changes", got)
	}

	if err := os.Remove(moves); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := w.Check(); !slices.Equal(got, []string{moves}) {
		t.Errorf("Check after remove = %v, want [%s]", got, moves)
	}
}

func TestRun_CallsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "items.txt")
	writeFile(t, path, "[REPEL]\n")

	var (
		mu      sync.Mutex
		changes [][]string
		called  = make(chan struct{}, 1)
	)
	w := watch.New([]string{path}, func(_ context.Context, changed []string) {
		mu.Lock()
		changes = append(changes, changed)
		mu.Unlock()
		select {
		case called <- struct{}{}:
		default:
		}
	}, watch.WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, path, "[REPEL]\nPrice = 400\n")

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("onChange not called within 5s")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 || !slices.Equal(changes[0], []string{path}) {
		t.Errorf("changes = %v", changes)
	}
}
