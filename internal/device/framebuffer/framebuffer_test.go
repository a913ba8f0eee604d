package framebuffer

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"kiosk/internal/apperr"
)

func TestEncode_RGB565(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{0xff, 0x00, 0x00, 0xff})
	src.Set(1, 0, color.RGBA{0x00, 0xff, 0xff, 0xff})

	dst := make([]byte, 4)
	Encode(dst, image.Rect(0, 0, 2, 1), RGB565(2), src)

	// little endian 0xF800 then 0x07FF
	want := []byte{0x00, 0xf8, 0xff, 0x07}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst = % x, expected % x", dst, want)
		}
	}
}

func TestEncode_XRGB8888(t *testing.T) {
	format := Format{
		BytesPerPixel: 4,
		Stride:        4,
		Red:           bitfield{Offset: 16, Length: 8},
		Green:         bitfield{Offset: 8, Length: 8},
		Blue:          bitfield{Offset: 0, Length: 8},
	}
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	src.Set(0, 0, color.RGBA{0x12, 0x34, 0x56, 0xff})

	dst := make([]byte, 4)
	Encode(dst, image.Rect(0, 0, 1, 1), format, src)

	if dst[0] != 0x56 || dst[1] != 0x34 || dst[2] != 0x12 {
		t.Errorf("dst = % x", dst)
	}
}

func TestEncode_ClipsToPanel(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	dst := make([]byte, 2*2*2)

	Encode(dst, image.Rect(0, 0, 2, 2), RGB565(2), src)
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "fb9"))
	if !errors.Is(err, apperr.ErrHardwareUnavailable) {
		t.Errorf("expected ErrHardwareUnavailable, got %v", err)
	}
}

func TestHeadless_CountsFrames(t *testing.T) {
	var h Headless
	h.Present(nil)
	h.Present(nil)
	if h.Frames() != 2 {
		t.Errorf("expected 2 frames, got %d", h.Frames())
	}
}
