package ui

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	colorBackground = color.RGBA{0x1b, 0x1f, 0x2a, 0xff}
	colorPanel      = color.RGBA{0x2c, 0x33, 0x44, 0xff}
	colorText       = color.RGBA{0xf2, 0xf2, 0xf2, 0xff}
	colorMuted      = color.RGBA{0x9a, 0xa3, 0xb5, 0xff}
	colorAccent     = color.RGBA{0x2f, 0x80, 0xed, 0xff}
	colorSuccess    = color.RGBA{0x27, 0xae, 0x60, 0xff}
	colorError      = color.RGBA{0xeb, 0x57, 0x57, 0xff}
	colorDisabled   = color.RGBA{0x4a, 0x4f, 0x5c, 0xff}
)

const textSize = 13

// textFace covers Latin-1 so accented Spanish text renders. It is only used
// from the render goroutine.
var textFace = mustFace(goregular.TTF, textSize)

var lineHeight = textFace.Metrics().Height.Ceil() + 2

func mustFace(ttf []byte, size float64) font.Face {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		panic(err)
	}
	return face
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func outline(dst draw.Image, r image.Rectangle, c color.Color, width int) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func textWidth(s string) int {
	return font.MeasureString(textFace, s).Ceil()
}

// drawText draws s with its baseline at y.
func drawText(dst draw.Image, s string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: textFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawTextCentered centres s horizontally in r with its baseline at y.
func drawTextCentered(dst draw.Image, s string, r image.Rectangle, y int, c color.Color) {
	x := r.Min.X + (r.Dx()-textWidth(s))/2
	drawText(dst, s, x, y, c)
}

// drawImageFit scales src into r keeping its aspect ratio.
func drawImageFit(dst draw.Image, r image.Rectangle, src image.Image) image.Rectangle {
	sb := src.Bounds()
	if sb.Empty() || r.Empty() {
		return image.Rectangle{}
	}

	w, h := r.Dx(), sb.Dy()*r.Dx()/sb.Dx()
	if h > r.Dy() {
		w, h = sb.Dx()*r.Dy()/sb.Dy(), r.Dy()
	}
	x := r.Min.X + (r.Dx()-w)/2
	y := r.Min.Y + (r.Dy()-h)/2
	target := image.Rect(x, y, x+w, y+h)

	draw.ApproxBiLinear.Scale(dst, target, src, sb, draw.Src, nil)
	return target
}

// mapRect maps a rectangle in src coordinates into the area src was drawn to.
func mapRect(r, src, target image.Rectangle) image.Rectangle {
	if src.Dx() == 0 || src.Dy() == 0 {
		return image.Rectangle{}
	}
	scale := func(v, from0, fromN, to0, toN int) int {
		return to0 + (v-from0)*(toN-to0)/(fromN-from0)
	}
	return image.Rect(
		scale(r.Min.X, src.Min.X, src.Max.X, target.Min.X, target.Max.X),
		scale(r.Min.Y, src.Min.Y, src.Max.Y, target.Min.Y, target.Max.Y),
		scale(r.Max.X, src.Min.X, src.Max.X, target.Min.X, target.Max.X),
		scale(r.Max.Y, src.Min.Y, src.Max.Y, target.Min.Y, target.Max.Y),
	)
}

type button struct {
	rect  image.Rectangle
	label string
	color color.Color
}

func (b button) hit(p image.Point) bool {
	return p.In(b.rect)
}

func (b button) draw(dst draw.Image, enabled bool) {
	c := b.color
	if !enabled {
		c = colorDisabled
	}
	fill(dst, b.rect, c)
	y := b.rect.Min.Y + (b.rect.Dy()+textFace.Metrics().Ascent.Ceil())/2 - 1
	drawTextCentered(dst, b.label, b.rect, y, colorText)
}

// keypad lays out a 4x3 numeric keypad in area. The bottom row holds
// backspace, zero and OK.
func keypad(area image.Rectangle) []button {
	labels := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "<", "0", "OK"}
	const gap = 3
	w := (area.Dx() - 2*gap) / 3
	h := (area.Dy() - 3*gap) / 4

	buttons := make([]button, 0, len(labels))
	for i, label := range labels {
		col, row := i%3, i/3
		x := area.Min.X + col*(w+gap)
		y := area.Min.Y + row*(h+gap)
		c := colorPanel
		if label == "OK" {
			c = colorAccent
		}
		buttons = append(buttons, button{rect: image.Rect(x, y, x+w, y+h), label: label, color: c})
	}
	return buttons
}

// keypadKey translates a keypad label into the key it stands for.
func keypadKey(label string) Key {
	switch label {
	case "<":
		return KeyBackspace
	case "OK":
		return KeyEnter
	default:
		return Key(label[0])
	}
}

// header draws the title bar and returns the area below it.
func header(dst *image.RGBA, title string) image.Rectangle {
	b := dst.Bounds()
	fill(dst, b, colorBackground)
	bar := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+24)
	fill(dst, bar, colorPanel)
	drawTextCentered(dst, title, bar, bar.Min.Y+17, colorText)
	return image.Rect(b.Min.X, bar.Max.Y, b.Max.X, b.Max.Y)
}

// footer draws the status line along the bottom edge.
func footer(dst *image.RGBA, status string, c color.Color) {
	b := dst.Bounds()
	if status == "" {
		return
	}
	drawTextCentered(dst, status, b, b.Max.Y-6, c)
}
