// Package render turns the watch face state into draw commands and carries
// the raster canvas the headless hosts draw them onto.
package render

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/i474232898/weather-watchface/internal/weather"
)

// Padding separates the date from the time and the weather block from the date.
const Padding = 16.0

// Layout is one of the two dimension sets chosen by the window shape.
type Layout struct {
	TimeXOffset     float64 `toml:"time_x_offset"`
	TimeYOffset     float64 `toml:"time_y_offset"`
	TimeTextSize    float64 `toml:"time_text_size"`
	DateTextSize    float64 `toml:"date_text_size"`
	TemperatureSize float64 `toml:"temperature_text_size"`
}

// Palette holds the interactive colours. Ambient always draws on black.
type Palette struct {
	Background color.Color
	Text       color.Color
}

// Frame is everything one draw needs.
type Frame struct {
	Width, Height float64
	Ambient       bool
	TimeAntiAlias bool

	Time    string
	Date    string
	Weather weather.State
	// Icon is the scaled bitmap for Weather.Icon, nil when not loaded.
	Icon image.Image

	Layout  Layout
	Palette Palette
}

// Measurer reports the advance width of text at a font size.
type Measurer interface {
	MeasureText(text string, size float64) float64
}

// Role tags text commands so hosts and tests can tell them apart.
type Role string

const (
	RoleTime        Role = "time"
	RoleDate        Role = "date"
	RoleTemperature Role = "temperature"
)

// Command is one draw operation.
type Command interface {
	command()
}

// FillColor floods the whole surface.
type FillColor struct {
	Color color.Color
}

// FillRect paints a rectangle.
type FillRect struct {
	X, Y, W, H float64
	Color      color.Color
}

// Text draws a string with its baseline at Y.
type Text struct {
	Role      Role
	Text      string
	X, Y      float64
	Size      float64
	Color     color.Color
	AntiAlias bool
}

// Bitmap draws an image with its top-left corner at X, Y.
type Bitmap struct {
	Image image.Image
	X, Y  float64
}

func (FillColor) command() {}
func (FillRect) command()  {}
func (Text) command()      {}
func (Bitmap) command()    {}

// Compose lays the frame out. Ambient frames show only the time on black;
// interactive frames add the date and, once an icon is known and loaded,
// the icon left of centre with the temperature summary right of it.
func Compose(f Frame, m Measurer) []Command {
	cmds := make([]Command, 0, 5)

	if f.Ambient {
		cmds = append(cmds, FillColor{Color: color.Black})
	} else {
		cmds = append(cmds, FillRect{W: f.Width, H: f.Height, Color: f.Palette.Background})
	}

	cx := f.Width / 2
	l := f.Layout
	cmds = append(cmds, Text{
		Role:      RoleTime,
		Text:      f.Time,
		X:         cx - m.MeasureText(f.Time, l.TimeTextSize)/2,
		Y:         l.TimeYOffset,
		Size:      l.TimeTextSize,
		Color:     f.Palette.Text,
		AntiAlias: f.TimeAntiAlias,
	})
	if f.Ambient {
		return cmds
	}

	dateY := l.TimeYOffset + l.DateTextSize + Padding
	cmds = append(cmds, Text{
		Role:      RoleDate,
		Text:      f.Date,
		X:         cx - m.MeasureText(f.Date, l.DateTextSize)/2,
		Y:         dateY,
		Size:      l.DateTextSize,
		Color:     f.Palette.Text,
		AntiAlias: true,
	})

	if !f.Weather.HasIcon() || f.Weather.ConditionCode == 0 || f.Icon == nil {
		return cmds
	}
	b := f.Icon.Bounds()
	cmds = append(cmds,
		Bitmap{
			Image: f.Icon,
			X:     cx - float64(b.Dx()),
			Y:     dateY + Padding,
		},
		Text{
			Role:      RoleTemperature,
			Text:      f.Weather.Summary(),
			X:         cx,
			Y:         dateY + l.TemperatureSize + float64(b.Dy()/2),
			Size:      l.TemperatureSize,
			Color:     f.Palette.Text,
			AntiAlias: true,
		},
	)
	return cmds
}

// FormatTime renders H:MM with no leading zero on the hour.
func FormatTime(t time.Time) string {
	return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
}

// FormatDate renders e.g. "Wed, Jan 8, '25".
func FormatDate(t time.Time) string {
	return t.Format("Mon, Jan 2, '06")
}
