package config_test

import (
	"testing"
	"time"

	"github.com/MrWong99/pbsimport/internal/config"
)

func TestLoad_ExampleConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("../../configs/example.yaml")
	if err != nil {
		t.Fatalf("Load example config: %v", err)
	}
	if cfg.Input.Files.Species != "pokemon.txt" {
		t.Errorf("Files.Species = %q, want %q", cfg.Input.Files.Species, "pokemon.txt")
	}
	if cfg.Watch.Interval != 2*time.Second {
		t.Errorf("Watch.Interval = %v, want 2s", cfg.Watch.Interval)
	}
	if got := len(cfg.Input.Paths()); got != 6 {
		t.Errorf("len(Paths()) = %d, want 6", got)
	}
}
