package util

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
)

var ErrPixelBufferSize = errors.New("pixel buffer does not match image dimensions")

// EncodePNG encodes a non-premultiplied RGBA buffer of width*height*4 bytes.
func EncodePNG(pixels []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrPixelBufferSize, len(pixels), width, height)
	}

	img := &image.NRGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG returns the RGBA pixel buffer and dimensions of a PNG payload.
func DecodePNG(data []byte) ([]byte, int, int, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode png: %w", err)
	}

	bounds := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == bounds.Dx()*4 && bounds.Min == (image.Point{}) {
		return nrgba.Pix, bounds.Dx(), bounds.Dy(), nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out.Pix, bounds.Dx(), bounds.Dy(), nil
}
