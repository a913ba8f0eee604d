package camera

import (
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	"kiosk/internal/apperr"
)

// Codec turns raw JPEG frames into pixels and back.
type Codec interface {
	Decode(data []byte) (*image.RGBA, error)
	Encode(img image.Image) ([]byte, error)
}

// GocvCodec decodes and encodes JPEG through OpenCV.
type GocvCodec struct {
	Quality int
}

// NewGocvCodec returns a codec encoding at the given JPEG quality (1-100).
func NewGocvCodec(quality int) *GocvCodec {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &GocvCodec{Quality: quality}
}

// Decode converts a JPEG buffer to an RGBA image.
func (c *GocvCodec) Decode(data []byte) (*image.RGBA, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", apperr.ErrDecodeCorruption, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: decoded image is empty", apperr.ErrDecodeCorruption)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to convert mat: %v", apperr.ErrDecodeCorruption, err)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

// Encode re-encodes an image as JPEG.
func (c *GocvCodec) Encode(img image.Image) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), c.Quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
