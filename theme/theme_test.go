package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.gpl")
	data := "GIMP Palette\nName: Two\nColumns: 2\n# comment\n  0   0   0\tblack\n255 128  0 orange\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadGPL(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Two" || len(p.Colors) != 2 {
		t.Fatalf("palette = %+v", p)
	}
	if got := p.Lookup(0.5); got != (RGB{127, 64, 0}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
	if got := p.Lookup(2); got != (RGB{255, 128, 0}) {
		t.Errorf("Lookup(2) = %v", got)
	}
	if got := p.Lookup(-1); got != (RGB{0, 0, 0}) {
		t.Errorf("Lookup(-1) = %v", got)
	}
}

func TestParseGPLErrors(t *testing.T) {
	tests := map[string]string{
		"empty":         "GIMP Palette\nName: Empty\n",
		"short row":     "GIMP Palette\n0 0\n",
		"channel range": "GIMP Palette\n0 300 0 too bright\n",
		"not a number":  "GIMP Palette\nred green blue\n",
	}
	for name, body := range tests {
		if _, err := ParseGPL(strings.NewReader(body)); err == nil {
			t.Errorf("%s: parsed without error", name)
		}
	}
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	if err != nil || p.Name != "plasma" {
		t.Fatalf("empty path: %v %v", p, err)
	}
	p, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	if err == nil || p == nil || len(p.Colors) == 0 {
		t.Errorf("missing file: %v %v", p, err)
	}
}

func TestThemeColors(t *testing.T) {
	th := Default()
	if th.BG() != "#0d0887" {
		t.Errorf("BG = %s", th.BG())
	}
	if th.Success() != "#f0f921" {
		t.Errorf("Success = %s", th.Success())
	}
	if th.Instrument(0) == th.Instrument(127) {
		t.Error("instrument colors do not vary")
	}
}
