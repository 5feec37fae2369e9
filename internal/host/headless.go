// Package host runs a watch face engine without a display: it owns the
// dispatch queue, draws invalidated frames onto a raster canvas and keeps
// the latest frame as PNG.
package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/weather-watchface/internal/dispatch"
	"github.com/i474232898/weather-watchface/internal/engine"
	"github.com/i474232898/weather-watchface/internal/render"
)

// ErrNoFrame is returned before the first frame has been drawn.
var ErrNoFrame = errors.New("no frame drawn yet")

// Drawer is the engine side of a host.
type Drawer interface {
	OnDraw(c render.Canvas, bounds image.Rectangle) []render.Command
}

// Frame is one drawn frame.
type Frame struct {
	Seq      int
	PNG      []byte
	Commands []render.Command
}

// Headless implements engine.Host on a GGCanvas. Invalidate coalesces: any
// number of calls during one queue pass produce a single draw.
type Headless struct {
	queue     *dispatch.Queue
	canvas    *render.GGCanvas
	framePath string

	drawer      Drawer
	drawPending bool

	mu     sync.RWMutex
	frame  Frame
	frames int
}

var _ engine.Host = (*Headless)(nil)

// NewHeadless creates a host drawing on canvas. When framePath is set each
// frame is also written there.
func NewHeadless(queue *dispatch.Queue, canvas *render.GGCanvas, framePath string) *Headless {
	return &Headless{queue: queue, canvas: canvas, framePath: framePath}
}

// Attach sets the engine to draw. Must happen before the first Invalidate.
func (h *Headless) Attach(d Drawer) {
	h.drawer = d
}

// Queue returns the host's dispatch queue.
func (h *Headless) Queue() *dispatch.Queue { return h.queue }

// Bounds is the drawing area.
func (h *Headless) Bounds() image.Rectangle {
	return image.Rect(0, 0, h.canvas.Width(), h.canvas.Height())
}

// Invalidate schedules a draw. Called on the queue.
func (h *Headless) Invalidate() {
	if h.drawPending || h.drawer == nil {
		return
	}
	h.drawPending = true
	h.queue.Post(h.draw)
}

func (h *Headless) draw() {
	h.drawPending = false
	cmds := h.drawer.OnDraw(h.canvas, h.Bounds())

	var buf bytes.Buffer
	if err := h.canvas.EncodePNG(&buf); err != nil {
		log.Printf("host: ERROR: encode frame: %v", err)
		return
	}

	h.mu.Lock()
	h.frames++
	h.frame = Frame{Seq: h.frames, PNG: buf.Bytes(), Commands: cmds}
	h.mu.Unlock()

	if h.framePath != "" {
		if err := writeFile(h.framePath, buf.Bytes()); err != nil {
			log.Printf("host: ERROR: %v", err)
		}
	}
}

// LatestFrame returns the most recent frame.
func (h *Headless) LatestFrame() (Frame, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.frames == 0 {
		return Frame{}, ErrNoFrame
	}
	return h.frame, nil
}

// Frames returns how many frames have been drawn.
func (h *Headless) Frames() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frames
}

// Do runs fn on the queue and waits for it, or for ctx.
func (h *Headless) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	h.queue.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the queue until ctx is cancelled.
func (h *Headless) Run(ctx context.Context) error {
	return h.queue.Run(ctx)
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create frame dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp frame: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace frame: %w", err)
	}
	return nil
}
