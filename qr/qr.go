// Package qr renders campaign links as QR codes.
package qr

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/anyproto/ar-campaign-server/domain"
)

const (
	// Size is the width and height of the rendered image in pixels
	Size = 256
	// Margin is the quiet zone around the code, in modules
	Margin = 2
	// MinModulePx is the smallest module size in pixels
	MinModulePx = 2

	Level = qrcode.Medium

	dataUriPrefix = "data:image/png;base64,"
)

// Image returns the QR code of the given content. Content that doesn't fit into
// a QR code at the medium error correction level fails with *domain.EncodingError.
//
// Modules are scaled by a whole number of pixels and centered on a white square of
// Size pixels, so the quiet zone is at least Margin modules. A symbol that doesn't fit
// into Size at MinModulePx gets a larger image.
func Image(content string) (image.Image, error) {
	code, err := qrcode.New(content, Level)
	if err != nil {
		return nil, &domain.EncodingError{Err: err}
	}
	code.DisableBorder = true
	modules := code.Bitmap()

	side := len(modules) + 2*Margin
	img := image.NewGray(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	for y, row := range modules {
		for x, dark := range row {
			if dark {
				img.SetGray(x+Margin, y+Margin, color.Gray{Y: 0})
			}
		}
	}
	scale := max(MinModulePx, Size/side)
	scaled := imaging.Resize(img, side*scale, side*scale, imaging.NearestNeighbor)
	dim := max(Size, side*scale)
	return imaging.PasteCenter(imaging.New(dim, dim, color.White), scaled), nil
}

// PNG returns the QR code of the given content encoded as png
func PNG(content string) ([]byte, error) {
	img, err := Image(content)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, &domain.EncodingError{Err: err}
	}
	return buf.Bytes(), nil
}

// Encode returns the QR code of the given content as a png data uri
func Encode(content string) (string, error) {
	data, err := PNG(content)
	if err != nil {
		return "", err
	}
	return dataUriPrefix + base64.StdEncoding.EncodeToString(data), nil
}
