package ui

import (
	"image"
	"testing"

	"golang.org/x/image/math/fixed"
)

func TestTextFace_HasSpanishGlyphs(t *testing.T) {
	for _, r := range "áéíóúñÁÉÍÓÚÑü¿¡" {
		if _, _, _, _, ok := textFace.Glyph(fixed.Point26_6{}, r); !ok {
			t.Errorf("expected a glyph for %q", r)
		}
	}
}

func TestTextFace_LineHeight(t *testing.T) {
	if lineHeight < textFace.Metrics().Height.Ceil() {
		t.Errorf("lineHeight %d is shorter than the face height %d", lineHeight, textFace.Metrics().Height.Ceil())
	}
}

func TestDrawText_AccentedLetterIsPainted(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 40, 20))
	drawText(dst, "é", 2, 15, colorText)

	painted := false
	for i := 3; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] != 0 {
			painted = true
			break
		}
	}
	if !painted {
		t.Error("expected pixels for an accented letter")
	}
	if textWidth("Cédula") <= textWidth("Cdula") {
		t.Error("expected the accented letter to advance the pen")
	}
}
