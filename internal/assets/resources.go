// Package assets supplies the read-only resources the watch face draws
// with: colours and layout dimensions from a TOML document, and the weather
// icon bitmaps.
package assets

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/i474232898/weather-watchface/internal/render"
)

// Resources is the resource document. Missing fields keep their defaults.
type Resources struct {
	Colors struct {
		Background string `toml:"background" validate:"required,hexcolor"`
		Text       string `toml:"text" validate:"required,hexcolor"`
	} `toml:"colors"`
	Layouts struct {
		Square layoutValues `toml:"square"`
		Round  layoutValues `toml:"round"`
	} `toml:"layout"`
	Icons struct {
		Scale float64 `toml:"scale" validate:"gt=0"`
	} `toml:"icons"`
	Font string `toml:"font"`
}

type layoutValues struct {
	TimeXOffset     float64 `toml:"time_x_offset"`
	TimeYOffset     float64 `toml:"time_y_offset" validate:"gt=0"`
	TimeTextSize    float64 `toml:"time_text_size" validate:"gt=0"`
	DateTextSize    float64 `toml:"date_text_size" validate:"gt=0"`
	TemperatureSize float64 `toml:"temperature_text_size" validate:"gt=0"`
}

var validate = validator.New()

// DefaultResources returns the built-in resource set.
func DefaultResources() Resources {
	var r Resources
	r.Colors.Background = "#03A9F4"
	r.Colors.Text = "#FFFFFF"
	r.Layouts.Square = layoutValues{
		TimeXOffset:     15,
		TimeYOffset:     85,
		TimeTextSize:    40,
		DateTextSize:    20,
		TemperatureSize: 24,
	}
	r.Layouts.Round = layoutValues{
		TimeXOffset:     25,
		TimeYOffset:     90,
		TimeTextSize:    45,
		DateTextSize:    22,
		TemperatureSize: 26,
	}
	r.Icons.Scale = 1.2
	return r
}

// LoadResources reads path over the defaults. A missing file is not an error.
func LoadResources(path string) (Resources, error) {
	r := DefaultResources()
	if path == "" {
		return r, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return r, fmt.Errorf("read resources: %w", err)
	}
	if err := toml.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("parse resources %s: %w", path, err)
	}
	if err := validate.Struct(r); err != nil {
		return r, fmt.Errorf("invalid resources %s: %w", path, err)
	}
	return r, nil
}

// Layout returns the dimension set for the window shape.
func (r Resources) Layout(round bool) render.Layout {
	v := r.Layouts.Square
	if round {
		v = r.Layouts.Round
	}
	return render.Layout{
		TimeXOffset:     v.TimeXOffset,
		TimeYOffset:     v.TimeYOffset,
		TimeTextSize:    v.TimeTextSize,
		DateTextSize:    v.DateTextSize,
		TemperatureSize: v.TemperatureSize,
	}
}

// Palette returns the interactive colours.
func (r Resources) Palette() (render.Palette, error) {
	bg, err := ParseHexColor(r.Colors.Background)
	if err != nil {
		return render.Palette{}, fmt.Errorf("background: %w", err)
	}
	text, err := ParseHexColor(r.Colors.Text)
	if err != nil {
		return render.Palette{}, fmt.Errorf("text: %w", err)
	}
	return render.Palette{Background: bg, Text: text}, nil
}

// ParseHexColor accepts #RGB, #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("colour %q: want #RGB, #RRGGBB or #RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
