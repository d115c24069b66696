package travel

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/jpeg"
)

// MaxDimension bounds screenshots sent to the vision model.
const MaxDimension = 2048

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop keeps the top-left max x max region of an image and returns it as
// PNG. Images already within bounds are returned untouched.
func Crop(data []byte, max int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= max && b.Dy() <= max && format == "png" {
		return data, nil
	}
	w, h := min(b.Dx(), max), min(b.Dy(), max)
	rect := image.Rect(b.Min.X, b.Min.Y, b.Min.X+w, b.Min.Y+h)

	var cropped image.Image
	if si, ok := img.(subImager); ok {
		cropped = si.SubImage(rect)
	} else {
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				rgba.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
			}
		}
		cropped = rgba
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}
