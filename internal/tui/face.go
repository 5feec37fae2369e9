package tui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/i474232898/weather-watchface/internal/render"
	"github.com/i474232898/weather-watchface/internal/weather"
)

var iconGlyphs = map[weather.Icon]string{
	weather.IconStorm:       "⛈",
	weather.IconLightRain:   "🌦",
	weather.IconRain:        "🌧",
	weather.IconSnow:        "❄",
	weather.IconFog:         "🌫",
	weather.IconClear:       "☀",
	weather.IconLightClouds: "🌤",
	weather.IconCloudy:      "☁",
}

// renderFace draws composed commands as a block of terminal text. Bitmaps
// become the glyph for icon, placed before the temperature.
func renderFace(cmds []render.Command, icon weather.Icon, round bool, width int) string {
	var bg, fg color.Color = color.Black, color.White
	var lines []string
	hasIcon, timeAA := false, true
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case render.FillColor:
			bg = cmd.Color
		case render.FillRect:
			bg = cmd.Color
		case render.Bitmap:
			hasIcon = true
		case render.Text:
			if cmd.Color != nil {
				fg = cmd.Color
			}
			text := cmd.Text
			switch cmd.Role {
			case render.RoleTime:
				timeAA = cmd.AntiAlias
			case render.RoleTemperature:
				if g, ok := iconGlyphs[icon]; ok && hasIcon {
					text = g + "  " + text
				}
			}
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		lines = []string{""}
	}

	style := lipgloss.NewStyle().
		Background(lipgloss.Color(hexColor(bg))).
		Foreground(lipgloss.Color(hexColor(fg))).
		Width(width).
		Align(lipgloss.Center).
		Padding(1, 0)
	if round {
		style = style.Border(lipgloss.RoundedBorder())
	} else {
		style = style.Border(lipgloss.NormalBorder())
	}

	// The time line is bold unless drawn aliased.
	if timeAA {
		lines[0] = lipgloss.NewStyle().Bold(true).Render(lines[0])
	}
	return style.Render(strings.Join(lines, "\n\n"))
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8)
}
