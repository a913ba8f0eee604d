// Package face holds the face-detection boundary used before auto-capture.
// No real detector ships with the terminal; the simulated locator mirrors the
// behaviour the server-side matcher expects (a centred face region).
package face

import (
	"image"
	"math/rand"
	"sync"
)

// Locator finds face regions in a frame.
type Locator interface {
	Locate(img image.Image) []image.Rectangle
}

// SimulatedLocator reports a centred region one third of the frame in size
// with probability HitRate.
type SimulatedLocator struct {
	HitRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulatedLocator returns a locator seeded from seed.
func NewSimulatedLocator(hitRate float64, seed int64) *SimulatedLocator {
	return &SimulatedLocator{HitRate: hitRate, rnd: rand.New(rand.NewSource(seed))}
}

func (l *SimulatedLocator) Locate(img image.Image) []image.Rectangle {
	if img == nil {
		return nil
	}

	l.mu.Lock()
	hit := l.rnd.Float64() < l.HitRate
	l.mu.Unlock()
	if !hit {
		return nil
	}

	return []image.Rectangle{CenterRegion(img.Bounds())}
}

// CenterRegion returns the centred third of bounds.
func CenterRegion(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx()/3, bounds.Dy()/3
	x := bounds.Min.X + (bounds.Dx()-w)/2
	y := bounds.Min.Y + (bounds.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// Always reports a centred face on every frame.
type Always struct{}

func (Always) Locate(img image.Image) []image.Rectangle {
	if img == nil {
		return nil
	}
	return []image.Rectangle{CenterRegion(img.Bounds())}
}
