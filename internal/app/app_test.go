package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrWong99/pbsimport/internal/app"
	"github.com/MrWong99/pbsimport/internal/config"
	"github.com/MrWong99/pbsimport/internal/export"
	"github.com/MrWong99/pbsimport/internal/pbs"
)

const abilitiesPBS = `#-------------------------------
[OVERGROW]
Name = Overgrow
Description = Powers up Grass-type moves in a pinch.
#-------------------------------
[CHLOROPHYLL]
Name = Chlorophyll
Description = Boosts the Pokémon's Speed in sunshine.
`

// testConfig writes abilities into a temp dir and returns a config that
// imports only the Ability kind from it.
func testConfig(t *testing.T, abilities string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "abilities.txt"), abilities)

	cfg := &config.Config{
		Input: config.InputConfig{
			Dir:   dir,
			Kinds: []string{pbs.KindAbility},
		},
		Watch: config.WatchConfig{
			Interval:   10 * time.Millisecond,
			ListenAddr: "127.0.0.1:0",
		},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newApp(t *testing.T, cfg *config.Config, sink export.Sink) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg,
		app.WithSinks(sink),
		app.WithGatherer(prometheus.NewRegistry()),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestApp_Import(t *testing.T) {
	t.Parallel()

	sink := export.NewMemSink()
	a := newApp(t, testConfig(t, abilitiesPBS), sink)

	if rec := get(t, a.Handler(), "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before import = %d, want 503", rec.Code)
	}

	res, err := a.Import(context.Background())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := res.Records(); got != 2 {
		t.Errorf("Records() = %d, want 2", got)
	}
	want := []string{"OVERGROW", "CHLOROPHYLL"}
	if got := sink.IDs(pbs.KindAbility); !reflect.DeepEqual(got, want) {
		t.Errorf("sink IDs = %v, want %v", got, want)
	}

	if rec := get(t, a.Handler(), "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz after import = %d, want 200; body %s", rec.Code, rec.Body)
	}
	rec := get(t, a.Handler(), "/status")
	if !strings.Contains(rec.Body.String(), `"Ability"`) {
		t.Errorf("status body = %s, want Ability entry", rec.Body)
	}
}

func TestApp_ImportFailure(t *testing.T) {
	t.Parallel()

	sink := export.NewMemSink()
	a := newApp(t, testConfig(t, "[OVERGROW]\nName = Overgrow\nPower = 3\n"), sink)

	if _, err := a.Import(context.Background()); err == nil {
		t.Fatal("Import: want error for unknown field")
	}
	if kinds := sink.Kinds(); len(kinds) != 0 {
		t.Errorf("sink kinds = %v, want none after failed import", kinds)
	}
	rec := get(t, a.Handler(), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "last import failed") {
		t.Errorf("readyz body = %s, want failure reason", rec.Body)
	}
}

func TestApp_HandlerRoutes(t *testing.T) {
	t.Parallel()

	a := newApp(t, testConfig(t, abilitiesPBS), export.NewMemSink())

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/status", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if rec := get(t, a.Handler(), tt.path); rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}

func TestNew_MissingEnumerations(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, abilitiesPBS)
	cfg.Input.Enumerations = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := app.New(context.Background(), cfg, app.WithSinks(export.NewMemSink()))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("New error = %v, want os.ErrNotExist", err)
	}
}

func TestNew_JSONDirFromConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, abilitiesPBS)
	cfg.Output.JSONDir = t.TempDir()

	a, err := app.New(context.Background(), cfg, app.WithGatherer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if _, err := a.Import(context.Background()); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.JSONDir, "Ability.json")); err != nil {
		t.Errorf("Ability.json not written: %v", err)
	}
}

func TestApp_RunReimportsOnChange(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, abilitiesPBS)
	sink := export.NewMemSink()
	a := newApp(t, cfg, sink)

	if _, err := a.Import(context.Background()); err != nil {
		t.Fatalf("Import: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	writeFile(t, filepath.Join(cfg.Input.Dir, "abilities.txt"),
		abilitiesPBS+"#-------------------------------\n[BLAZE]\nName = Blaze\nDescription = Powers up Fire-type moves in a pinch.\n")

	deadline := time.Now().Add(5 * time.Second)
	for len(sink.IDs(pbs.KindAbility)) != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("sink IDs = %v, want BLAZE re-imported", sink.IDs(pbs.KindAbility))
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_Shutdown(t *testing.T) {
	t.Parallel()

	a, err := app.New(context.Background(), testConfig(t, abilitiesPBS), app.WithSinks())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	// Second call is a no-op.
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}
