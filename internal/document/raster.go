package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/thywilljoshua/pdf-extract/internal/common"
)

// Page is one rendered page, numbered from 1.
type Page struct {
	Number int
	PNG    []byte
}

// Rasterizer renders pages with MuPDF.
type Rasterizer struct {
	DPI      float64
	MaxWidth int
}

func (r Rasterizer) Rasterize(ctx context.Context, path string) ([]Page, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, common.SourceUnreadable(path, err)
	}
	defer doc.Close()

	dpi := r.DPI
	if dpi <= 0 {
		dpi = common.DefaultDPI
	}

	n := doc.NumPage()
	out := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		b, err := encodePNG(fit(img, r.MaxWidth))
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		out = append(out, Page{Number: i + 1, PNG: b})
	}
	return out, nil
}

// fit scales img down to maxWidth, keeping the aspect ratio.
func fit(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
