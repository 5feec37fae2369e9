package host

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weather-watchface/internal/clock"
	"github.com/i474232898/weather-watchface/internal/dispatch"
	"github.com/i474232898/weather-watchface/internal/render"
)

type stubDrawer struct {
	draws int
}

func (d *stubDrawer) OnDraw(c render.Canvas, bounds image.Rectangle) []render.Command {
	d.draws++
	cmds := []render.Command{render.FillRect{W: float64(bounds.Dx()), H: float64(bounds.Dy()), Color: color.White}}
	render.Draw(c, cmds)
	return cmds
}

func newHost(t *testing.T, framePath string) (*Headless, *stubDrawer) {
	t.Helper()
	canvas, err := render.NewGGCanvas(64, 64, "")
	if err != nil {
		t.Fatalf("NewGGCanvas: %v", err)
	}
	h := NewHeadless(dispatch.NewQueue(clock.NewFake(time.Unix(0, 0))), canvas, framePath)
	d := &stubDrawer{}
	h.Attach(d)
	return h, d
}

func TestInvalidateCoalesces(t *testing.T) {
	h, d := newHost(t, "")
	if _, err := h.LatestFrame(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("LatestFrame err = %v, want ErrNoFrame", err)
	}

	h.Queue().Post(func() {
		h.Invalidate()
		h.Invalidate()
		h.Invalidate()
	})
	h.Queue().RunPending()
	if d.draws != 1 || h.Frames() != 1 {
		t.Fatalf("draws = %d frames = %d, want 1", d.draws, h.Frames())
	}

	h.Queue().Post(h.Invalidate)
	h.Queue().RunPending()
	if d.draws != 2 {
		t.Fatalf("draws = %d, want 2", d.draws)
	}

	f, err := h.LatestFrame()
	if err != nil {
		t.Fatalf("LatestFrame: %v", err)
	}
	if f.Seq != 2 || len(f.Commands) != 1 {
		t.Fatalf("frame = seq %d, %d commands", f.Seq, len(f.Commands))
	}
	img, err := png.Decode(bytes.NewReader(f.PNG))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Fatalf("frame size = %v", b)
	}
}

func TestFrameWrittenToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames", "face.png")
	h, _ := newHost(t, path)
	h.Queue().Post(h.Invalidate)
	h.Queue().RunPending()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("frame file is not a PNG: %v", err)
	}
}

func TestDoRunsOnQueue(t *testing.T) {
	h, _ := newHost(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	ran := false
	if err := h.Do(ctx, func() { ran = true }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !ran {
		t.Fatalf("fn did not run")
	}
}

func TestDoHonoursContext(t *testing.T) {
	h, _ := newHost(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Do(ctx, func() {}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Do err = %v, want context.Canceled", err)
	}
}
