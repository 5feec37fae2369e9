package assets

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/i474232898/weather-watchface/internal/weather"
)

// ErrNoBitmap is returned when an icon has no bitmap to draw.
var ErrNoBitmap = errors.New("no bitmap for icon")

// Icons loads weather icon bitmaps from a directory and scales them once.
type Icons struct {
	dir   string
	scale float64

	mu    sync.Mutex
	cache map[weather.Icon]image.Image
}

// NewIcons reads ic_<icon>.png files from dir, scaled by scale.
func NewIcons(dir string, scale float64) *Icons {
	if scale <= 0 {
		scale = 1
	}
	return &Icons{dir: dir, scale: scale, cache: make(map[weather.Icon]image.Image)}
}

// Load returns the scaled bitmap for icon. IconNone and missing files yield
// ErrNoBitmap; the caller draws without the weather block.
func (s *Icons) Load(icon weather.Icon) (image.Image, error) {
	name := icon.AssetName()
	if name == "" || s.dir == "" {
		return nil, ErrNoBitmap
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.cache[icon]; ok {
		return img, nil
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoBitmap, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open icon: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode icon %s: %w", path, err)
	}
	img := Scale(src, s.scale)
	s.cache[icon] = img
	return img, nil
}

// Scale resizes img by factor with nearest-neighbour sampling, truncating
// the target size to whole pixels.
func Scale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// WriteDefaultIcons draws a simple size x size glyph for every icon into dir
// as ic_<icon>.png, skipping files that already exist.
func WriteDefaultIcons(dir string, size int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create icon dir: %w", err)
	}
	for _, icon := range weather.AllIcons() {
		path := filepath.Join(dir, icon.AssetName())
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := DrawIcon(icon, size).SavePNG(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("assets: INFO: wrote %s", path)
	}
	return nil
}

// DrawIcon renders a flat glyph for icon on a transparent size x size context.
func DrawIcon(icon weather.Icon, size int) *gg.Context {
	dc := gg.NewContext(size, size)
	s := float64(size)

	cloud := func(hex string) {
		dc.SetHexColor(hex)
		dc.DrawCircle(s*0.38, s*0.52, s*0.18)
		dc.DrawCircle(s*0.58, s*0.45, s*0.22)
		dc.DrawRoundedRectangle(s*0.2, s*0.5, s*0.62, s*0.2, s*0.1)
		dc.Fill()
	}
	drops := func(n int, hex string) {
		dc.SetHexColor(hex)
		dc.SetLineWidth(math.Max(1, s/24))
		for i := 0; i < n; i++ {
			x := s*0.32 + float64(i)*s*0.16
			dc.DrawLine(x, s*0.76, x-s*0.05, s*0.9)
		}
		dc.Stroke()
	}
	sun := func(cx, cy, r float64) {
		dc.SetHexColor("#FFC107")
		dc.DrawCircle(cx, cy, r)
		dc.Fill()
	}

	switch icon {
	case weather.IconClear:
		sun(s/2, s/2, s*0.25)
	case weather.IconLightClouds:
		sun(s*0.62, s*0.36, s*0.18)
		cloud("#ECEFF1")
	case weather.IconCloudy:
		cloud("#B0BEC5")
	case weather.IconLightRain:
		cloud("#CFD8DC")
		drops(2, "#4FC3F7")
	case weather.IconRain:
		cloud("#90A4AE")
		drops(3, "#29B6F6")
	case weather.IconSnow:
		cloud("#ECEFF1")
		dc.SetHexColor("#FFFFFF")
		for i := 0; i < 3; i++ {
			dc.DrawCircle(s*0.32+float64(i)*s*0.16, s*0.84, s*0.04)
		}
		dc.Fill()
	case weather.IconFog:
		dc.SetHexColor("#CFD8DC")
		dc.SetLineWidth(math.Max(1, s/16))
		for i := 0; i < 4; i++ {
			y := s*0.3 + float64(i)*s*0.14
			dc.DrawLine(s*0.18, y, s*0.82, y)
		}
		dc.Stroke()
	case weather.IconStorm:
		cloud("#78909C")
		dc.SetHexColor("#FFEB3B")
		dc.MoveTo(s*0.52, s*0.62)
		dc.LineTo(s*0.4, s*0.8)
		dc.LineTo(s*0.5, s*0.8)
		dc.LineTo(s*0.44, s*0.95)
		dc.LineTo(s*0.62, s*0.74)
		dc.LineTo(s*0.52, s*0.74)
		dc.ClosePath()
		dc.Fill()
	}
	return dc
}
