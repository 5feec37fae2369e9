package assets

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/i474232898/weather-watchface/internal/weather"
)

func TestLoadResourcesMissingFileUsesDefaults(t *testing.T) {
	r, err := LoadResources(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadResources: %v", err)
	}
	if r != DefaultResources() {
		t.Fatalf("resources = %+v, want defaults", r)
	}
}

func TestLoadResourcesOverridesSomeFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.toml")
	doc := `
[colors]
background = "#112233"

[layout.round]
time_text_size = 50.0
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r, err := LoadResources(path)
	if err != nil {
		t.Fatalf("LoadResources: %v", err)
	}
	if r.Colors.Background != "#112233" || r.Colors.Text != "#FFFFFF" {
		t.Fatalf("colors = %+v", r.Colors)
	}
	round := r.Layout(true)
	if round.TimeTextSize != 50 || round.DateTextSize != 22 {
		t.Fatalf("round layout = %+v", round)
	}
	if sq := r.Layout(false); sq.TimeTextSize != 40 {
		t.Fatalf("square layout = %+v", sq)
	}
}

func TestLoadResourcesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.toml")
	doc := "[layout.square]\ntime_text_size = -1.0\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadResources(path); err == nil || !strings.Contains(err.Error(), "invalid resources") {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#03A9F4", color.NRGBA{0x03, 0xA9, 0xF4, 0xFF}, true},
		{"#fff", color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, true},
		{"#00000080", color.NRGBA{0, 0, 0, 0x80}, true},
		{"blue", color.NRGBA{}, false},
		{"#12345", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseHexColor(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseHexColor(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("ParseHexColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestIconsLoadScalesAndCaches(t *testing.T) {
	dir := t.TempDir()
	if err := WriteDefaultIcons(dir, 40); err != nil {
		t.Fatalf("WriteDefaultIcons: %v", err)
	}
	icons := NewIcons(dir, 1.2)

	img, err := icons.Load(weather.IconRain)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 48 {
		t.Fatalf("scaled size = %dx%d, want 48x48", b.Dx(), b.Dy())
	}
	again, _ := icons.Load(weather.IconRain)
	if again != img {
		t.Fatalf("second Load did not hit the cache")
	}
}

func TestIconsMissingBitmap(t *testing.T) {
	icons := NewIcons(t.TempDir(), 1.2)
	if _, err := icons.Load(weather.IconSnow); !errors.Is(err, ErrNoBitmap) {
		t.Fatalf("Load(missing) err = %v, want ErrNoBitmap", err)
	}
	if _, err := icons.Load(weather.IconNone); !errors.Is(err, ErrNoBitmap) {
		t.Fatalf("Load(None) err = %v, want ErrNoBitmap", err)
	}
	if _, err := NewIcons("", 1).Load(weather.IconClear); !errors.Is(err, ErrNoBitmap) {
		t.Fatalf("Load without dir err = %v, want ErrNoBitmap", err)
	}
}

func TestScaleTruncates(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 33, 17))
	b := Scale(src, 1.2).Bounds()
	if b.Dx() != 39 || b.Dy() != 20 {
		t.Fatalf("Scale = %dx%d, want 39x20", b.Dx(), b.Dy())
	}
}

func TestWriteDefaultIconsKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, weather.IconClear.AssetName())
	if err := os.WriteFile(path, []byte("custom"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := WriteDefaultIcons(dir, 16); err != nil {
		t.Fatalf("WriteDefaultIcons: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "custom" {
		t.Fatalf("existing icon overwritten")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != len(weather.AllIcons()) {
		t.Fatalf("wrote %d files, want %d", len(entries), len(weather.AllIcons()))
	}
}
