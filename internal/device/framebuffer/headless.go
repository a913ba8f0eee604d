package framebuffer

import (
	"image"
	"sync/atomic"
)

// Headless discards frames. It keeps the kiosk running when no panel is
// attached.
type Headless struct {
	frames atomic.Uint64
}

func (h *Headless) Present(*image.RGBA) error {
	h.frames.Add(1)
	return nil
}

// Frames returns how many frames were presented.
func (h *Headless) Frames() uint64 {
	return h.frames.Load()
}

func (h *Headless) Close() error { return nil }
