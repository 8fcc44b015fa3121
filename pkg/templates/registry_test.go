package templates

import (
	"os"
	"path/filepath"
	"testing"
)

const registryYAML = `templates:
  - name: money_war_entry
    label: "货币战争入口"
    threshold: 0.85
    preload: true
  - name: auto_battle
    path: buttons/auto_battle.png
    region:
      x1: 900
      y1: 500
      x2: 1280
      y2: 720
  - name: popup
`

func writeRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "landmarks.yaml")
	if err := os.WriteFile(path, []byte(registryYAML), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	reg, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg, dir
}

func TestRegistryDefinitions(t *testing.T) {
	reg, dir := writeRegistry(t)

	names := reg.Names()
	want := []string{"auto_battle", "money_war_entry", "popup"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], name)
		}
	}

	tmpl, err := reg.Template("money_war_entry")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if tmpl.Threshold != 0.85 {
		t.Errorf("threshold = %v, want 0.85", tmpl.Threshold)
	}
	if tmpl.Label != "货币战争入口" {
		t.Errorf("label = %q", tmpl.Label)
	}
	if tmpl.Path != filepath.Join(dir, "money_war_entry.png") {
		t.Errorf("default path = %q", tmpl.Path)
	}

	tmpl, err = reg.Template("auto_battle")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if tmpl.Path != filepath.Join(dir, "buttons", "auto_battle.png") {
		t.Errorf("relative path = %q", tmpl.Path)
	}
	if tmpl.Region == nil || tmpl.Region.Empty() {
		t.Fatal("expected search region to be set")
	}
	if tmpl.Region.X1 != 900 || tmpl.Region.Y2 != 720 {
		t.Errorf("region = %+v", tmpl.Region)
	}

	if _, err := reg.Template("no_such_landmark"); err == nil {
		t.Error("expected error for unknown landmark")
	}
}

func TestLoadOrSynthesize(t *testing.T) {
	reg, dir := writeRegistry(t)

	synthesized, err := reg.LoadOrSynthesize()
	if err != nil {
		t.Fatalf("LoadOrSynthesize: %v", err)
	}
	if len(synthesized) != 3 {
		t.Fatalf("synthesized %v, want all three landmarks", synthesized)
	}

	// All images must now decode through the normal path.
	for _, name := range reg.Names() {
		img, tmpl, err := reg.Image(name)
		if err != nil {
			t.Fatalf("Image(%q): %v", name, err)
		}
		if img.Bounds().Dx() != placeholderWidth || img.Bounds().Dy() != placeholderHeight {
			t.Errorf("%s placeholder bounds = %v", name, img.Bounds())
		}
		if tmpl.Name != name {
			t.Errorf("template name = %q, want %q", tmpl.Name, name)
		}
	}

	// A second pass finds every file present and synthesizes nothing.
	again, err := reg.LoadOrSynthesize()
	if err != nil {
		t.Fatalf("second LoadOrSynthesize: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second pass synthesized %v, want none", again)
	}

	if _, err := os.Stat(filepath.Join(dir, "buttons", "auto_battle.png")); err != nil {
		t.Errorf("nested placeholder not written: %v", err)
	}
}

func TestImageCacheCounts(t *testing.T) {
	reg, _ := writeRegistry(t)
	if _, err := reg.LoadOrSynthesize(); err != nil {
		t.Fatalf("LoadOrSynthesize: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := reg.Image("popup"); err != nil {
			t.Fatalf("Image: %v", err)
		}
	}

	stats := reg.CacheStats()
	if stats.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1", stats.Loaded)
	}
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestLoadRegistryPrefersYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RegistryFileName)
	if err := os.WriteFile(path, []byte(registryYAML), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}

	reg, err := LoadRegistry(dir)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	names := reg.Names()
	if len(names) != 3 {
		t.Fatalf("Names() = %v, want the three YAML definitions", names)
	}

	// The YAML's per-landmark tuning comes through.
	tmpl, err := reg.Template("money_war_entry")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if tmpl.Threshold != 0.85 {
		t.Errorf("threshold = %v, want 0.85 from the YAML", tmpl.Threshold)
	}
	tmpl, err = reg.Template("auto_battle")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if tmpl.Region == nil {
		t.Error("search region from the YAML was dropped")
	}
}

func TestLoadRegistryFallsBackToDefaults(t *testing.T) {
	reg, err := LoadRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	names := reg.Names()
	if len(names) != len(DefaultDefinitions()) {
		t.Fatalf("Names() = %v, want the built-in definitions", names)
	}
	for _, want := range []string{"money_war_entry", "auto_battle", "settlement_confirm", "popup", "main_menu"} {
		if _, err := reg.Template(want); err != nil {
			t.Errorf("missing default landmark %q: %v", want, err)
		}
	}
}

func TestPreload(t *testing.T) {
	reg, _ := writeRegistry(t)
	if _, err := reg.LoadOrSynthesize(); err != nil {
		t.Fatalf("LoadOrSynthesize: %v", err)
	}

	if err := reg.Preload(); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	stats := reg.CacheStats()
	if stats.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1 (only money_war_entry is preload)", stats.Loaded)
	}
}
