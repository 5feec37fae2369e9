package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Canvas is a drawing surface commands can be replayed on.
type Canvas interface {
	Measurer
	Fill(c color.Color)
	FillRect(x, y, w, h float64, c color.Color)
	DrawText(text string, x, y, size float64, c color.Color, antiAlias bool)
	DrawBitmap(img image.Image, x, y float64)
}

// Draw replays cmds on c in order.
func Draw(c Canvas, cmds []Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case FillColor:
			c.Fill(cmd.Color)
		case FillRect:
			c.FillRect(cmd.X, cmd.Y, cmd.W, cmd.H, cmd.Color)
		case Text:
			c.DrawText(cmd.Text, cmd.X, cmd.Y, cmd.Size, cmd.Color, cmd.AntiAlias)
		case Bitmap:
			c.DrawBitmap(cmd.Image, cmd.X, cmd.Y)
		}
	}
}

// GGCanvas is a raster Canvas backed by a gg context.
type GGCanvas struct {
	dc   *gg.Context
	font *truetype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewGGCanvas creates a w x h canvas. fontPath selects a TrueType font; when
// empty the built-in Go Regular face is used.
func NewGGCanvas(w, h int, fontPath string) (*GGCanvas, error) {
	raw := goregular.TTF
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		raw = b
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &GGCanvas{
		dc:    gg.NewContext(w, h),
		font:  f,
		faces: make(map[float64]font.Face),
	}, nil
}

// Width returns the surface width in pixels.
func (c *GGCanvas) Width() int { return c.dc.Width() }

// Height returns the surface height in pixels.
func (c *GGCanvas) Height() int { return c.dc.Height() }

// Image returns the current raster.
func (c *GGCanvas) Image() image.Image { return c.dc.Image() }

// EncodePNG writes the current raster as PNG.
func (c *GGCanvas) EncodePNG(w io.Writer) error { return c.dc.EncodePNG(w) }

// SavePNG writes the current raster to path.
func (c *GGCanvas) SavePNG(path string) error { return c.dc.SavePNG(path) }

func (c *GGCanvas) face(size float64) font.Face {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(c.font, &truetype.Options{Size: size, Hinting: font.HintingFull})
	c.faces[size] = f
	return f
}

func (c *GGCanvas) MeasureText(text string, size float64) float64 {
	c.dc.SetFontFace(c.face(size))
	w, _ := c.dc.MeasureString(text)
	return w
}

func (c *GGCanvas) Fill(col color.Color) {
	c.dc.SetColor(col)
	c.dc.Clear()
}

func (c *GGCanvas) FillRect(x, y, w, h float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Fill()
}

func (c *GGCanvas) DrawText(text string, x, y, size float64, col color.Color, antiAlias bool) {
	face := c.face(size)
	if antiAlias {
		c.dc.SetFontFace(face)
		c.dc.SetColor(col)
		c.dc.DrawString(text, x, y)
		return
	}

	// Render into a scratch mask and copy only mostly-covered pixels, which
	// gives hard glyph edges for low-bit displays.
	mask := gg.NewContext(c.dc.Width(), c.dc.Height())
	mask.SetFontFace(face)
	mask.SetColor(color.White)
	mask.DrawString(text, x, y)

	w, _ := mask.MeasureString(text)
	m := face.Metrics()
	x0 := int(math.Floor(x)) - 1
	x1 := int(math.Ceil(x+w)) + 1
	y0 := int(math.Floor(y)) - m.Ascent.Ceil() - 1
	y1 := int(math.Ceil(y)) + m.Descent.Ceil() + 1

	img := mask.Image()
	c.dc.SetColor(col)
	for py := max(y0, 0); py < min(y1, c.dc.Height()); py++ {
		for px := max(x0, 0); px < min(x1, c.dc.Width()); px++ {
			if _, _, _, a := img.At(px, py).RGBA(); a >= 0x8000 {
				c.dc.SetPixel(px, py)
			}
		}
	}
}

func (c *GGCanvas) DrawBitmap(img image.Image, x, y float64) {
	c.dc.DrawImage(img, int(math.Round(x)), int(math.Round(y)))
}
