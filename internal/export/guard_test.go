package export_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/pbsimport/internal/export"
	"github.com/MrWong99/pbsimport/internal/pbs"
)

func TestGuard_SuspendsAfterFailures(t *testing.T) {
	t.Parallel()

	bad := &failingSink{kind: pbs.KindType}
	g := export.NewGuard(bad, 2, time.Hour)
	table := loadTable(t, pbs.TypeKind{}, "[NORMAL]\n")

	for i := range 2 {
		_, err := g.Import(context.Background(), table)
		if err == nil || errors.Is(err, export.ErrSinkSuspended) {
			t.Fatalf("import %d: err = %v, want sink error", i, err)
		}
	}
	if !g.Suspended() {
		t.Fatal("Suspended() = false after 2 failures")
	}

	_, err := g.Import(context.Background(), table)
	if !errors.Is(err, export.ErrSinkSuspended) {
		t.Errorf("err = %v, want ErrSinkSuspended", err)
	}
	if got := bad.calls.Load(); got != 2 {
		t.Errorf("sink called %d times, want 2", got)
	}
	if g.Name() != "failing" {
		t.Errorf("Name() = %q, want %q", g.Name(), "failing")
	}
}

func TestGuard_ProbeAfterCooldown(t *testing.T) {
	t.Parallel()

	bad := &failingSink{kind: pbs.KindType}
	g := export.NewGuard(bad, 1, 20*time.Millisecond)
	types := loadTable(t, pbs.TypeKind{}, "[NORMAL]\n")
	abilities := loadTable(t, pbs.AbilityKind{}, "[STENCH]\n")

	if _, err := g.Import(context.Background(), types); err == nil {
		t.Fatal("first import: want error")
	}
	if !g.Suspended() {
		t.Fatal("Suspended() = false after failure")
	}

	time.Sleep(30 * time.Millisecond)
	if g.Suspended() {
		t.Fatal("Suspended() = true after cooldown")
	}
	n, err := g.Import(context.Background(), abilities)
	if err != nil {
		t.Fatalf("probe import: %v", err)
	}
	if n != 1 {
		t.Errorf("probe wrote %d records, want 1", n)
	}
	if g.Suspended() {
		t.Error("Suspended() = true after successful probe")
	}
}

func TestGuard_SuccessResetsFailures(t *testing.T) {
	t.Parallel()

	bad := &failingSink{kind: pbs.KindType}
	g := export.NewGuard(bad, 2, time.Hour)
	types := loadTable(t, pbs.TypeKind{}, "[NORMAL]\n")
	abilities := loadTable(t, pbs.AbilityKind{}, "[STENCH]\n")

	for _, tbl := range []*pbs.Table{types, abilities, types} {
		_, _ = g.Import(context.Background(), tbl)
	}
	if g.Suspended() {
		t.Error("Suspended() = true, want failures reset by the success in between")
	}
}
