package ini_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/MrWong99/pbsimport/pkg/ini"
)

const repelPBS = `# See the documentation on the wiki to learn how to edit this file.
#-------------------------------
[REPEL]
Name = Repel
NamePlural = Repels
Pocket = 1
Price = 400
FieldUse = Direct
Flags = Repel,Fling_30
Description = An item that prevents weak wild Pokémon from appearing for 100 steps after its use.
#-------------------------------
[SUPERREPEL]
Name = Super Repel
NamePlural = Super Repels
Pocket = 1
Price = 700
FieldUse = Direct
Flags = Repel,Fling_30
Description = An item that prevents weak wild Pokémon from appearing for 200 steps after its use.
#-------------------------------
[MAXREPEL]
Name = Max Repel
NamePlural = Max Repels
Pocket = 1
Price = 900
FieldUse = Direct
Flags = Repel,Fling_30
Description = An item that prevents weak wild Pokémon from appearing for 250 steps after its use.
`

func TestParse_Sections(t *testing.T) {
	t.Parallel()

	f, err := ini.Parse(strings.NewReader(repelPBS))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}

	want := []string{"REPEL", "SUPERREPEL", "MAXREPEL"}
	if got := f.IDs(); !slices.Equal(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	keys := f.Keys()
	for _, id := range want {
		if !keys.Has(id) {
			t.Errorf("Keys() missing %q", id)
		}
	}
	if keys.Len() != len(want) {
		t.Errorf("Keys().Len() = %d, want %d", keys.Len(), len(want))
	}

	s, ok := f.Section("MAXREPEL")
	if !ok {
		t.Fatal("Section(MAXREPEL) not found")
	}
	if got, _ := s.Get("Flags"); got != "Repel,Fling_30" {
		t.Errorf(`Flags = %q, want "Repel,Fling_30"`, got)
	}
	wantKeys := []string{"Name", "NamePlural", "Pocket", "Price", "FieldUse", "Flags", "Description"}
	if got := s.Keys(); !slices.Equal(got, wantKeys) {
		t.Errorf("Keys() = %v, want %v", got, wantKeys)
	}
}

func TestParse_Permissive(t *testing.T) {
	t.Parallel()

	const input = "Orphan = dropped\nstray text\n[A]\n  not a field\nKey =   padded value  \n[B C]\n# Hidden = yes\nOther=1\n"
	f, err := ini.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if got := f.IDs(); !slices.Equal(got, []string{"A"}) {
		t.Fatalf("IDs() = %v, want [A]", got)
	}
	a, _ := f.Section("A")
	if got, _ := a.Get("Key"); got != "padded value" {
		t.Errorf("Key = %q, want %q", got, "padded value")
	}
	// "[B C]" is not a valid header, so Other lands in A.
	if got, ok := a.Get("Other"); !ok || got != "1" {
		t.Errorf("Other = %q, %v; want \"1\", true", got, ok)
	}
	if _, ok := a.Get("Hidden"); ok {
		t.Error("comment line was parsed as a field")
	}
}

func TestParse_BOMAndCRLF(t *testing.T) {
	t.Parallel()

	f, err := ini.Parse(strings.NewReader("\ufeff[POTION]\r\nName = Potion\r\n"))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	s, ok := f.Section("POTION")
	if !ok {
		t.Fatalf("Section(POTION) not found; IDs = %v", f.IDs())
	}
	if got, _ := s.Get("Name"); got != "Potion" {
		t.Errorf("Name = %q, want Potion", got)
	}
}

func TestParse_RepeatedHeaderStartsFresh(t *testing.T) {
	t.Parallel()

	const input = "[A]\nName = Old\nPrice = 5\n[B]\nName = Bee\n[A]\nName = New\n"
	f, err := ini.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if got := f.IDs(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("IDs() = %v, want [A B]", got)
	}
	a, _ := f.Section("A")
	if got := a.Keys(); !slices.Equal(got, []string{"Name"}) {
		t.Errorf("A keys = %v, want [Name]", got)
	}
	if got, _ := a.Get("Name"); got != "New" {
		t.Errorf("A Name = %q, want New", got)
	}
	if got := f.Sections()[0]; got != a {
		t.Error("Sections()[0] is not the reopened A")
	}
}

func TestParse_LongLine(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 3<<20)
	// The final line has no trailing newline.
	input := "[A]\nDescription = " + long + "\n[B]\nName = Bee"
	f, err := ini.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	a, _ := f.Section("A")
	if got, _ := a.Get("Description"); got != long {
		t.Errorf("Description length = %d, want %d", len(got), len(long))
	}
	b, ok := f.Section("B")
	if !ok {
		t.Fatalf("Section(B) not found; IDs = %v", f.IDs())
	}
	if got, _ := b.Get("Name"); got != "Bee" {
		t.Errorf("B Name = %q, want Bee", got)
	}
}

func TestSection_SetKeepsOrder(t *testing.T) {
	t.Parallel()

	f, err := ini.Parse(strings.NewReader("[X]\nA = 1\nB = 2\n"))
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	s, _ := f.Section("X")
	s.Set("A", "changed")
	s.Set("C", "3")
	if got := s.Keys(); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("Keys() = %v, want [A B C]", got)
	}
	if got, _ := s.Get("A"); got != "changed" {
		t.Errorf("A = %q, want changed", got)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "items.txt")
	if err := os.WriteFile(path, []byte(repelPBS), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := ini.Load(path)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d, want 3", f.Len())
	}

	_, err = ini.Load(filepath.Join(dir, "missing.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing): got %v, want os.ErrNotExist", err)
	}
}
