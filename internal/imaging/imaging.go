// Package imaging normalizes uploaded images before they are sent to an
// embedding provider: decode, bound the longest side, re-encode as RGB JPEG.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/lumina-search/lumina/internal/domain"
)

// Defaults used when the Preparer fields are zero.
const (
	DefaultMaxSide   = 512
	DefaultQuality   = 90
	DefaultMaxPixels = 40_000_000
)

const dataURIPrefix = "data:image/jpeg;base64,"

// Preparer converts raw uploads into provider-ready JPEG data URIs.
type Preparer struct {
	MaxSide   int
	Quality   int
	MaxPixels int // decoded width*height limit, checked from the header before decoding
}

// NewPreparer creates a Preparer; non-positive values fall back to defaults.
func NewPreparer(maxSide, quality int) *Preparer {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Preparer{MaxSide: maxSide, Quality: quality, MaxPixels: DefaultMaxPixels}
}

// WithMaxPixels sets the decoded size limit. Non-positive keeps the default.
func (p *Preparer) WithMaxPixels(n int) *Preparer {
	if n > 0 {
		p.MaxPixels = n
	}
	return p
}

// Prepare decodes data, downsizes it so neither side exceeds MaxSide
// (aspect ratio kept, never upscaled) and returns a base64 JPEG data URI.
func (p *Preparer) Prepare(data []byte) (string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: empty image %dx%d", domain.ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if limit := p.maxPixels(); int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return "", fmt.Errorf("%w: %dx%d exceeds the %d pixel limit",
			domain.ErrInvalidImage, cfg.Width, cfg.Height, limit)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}

	img := toRGB(resize(src, p.maxSide()))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality()}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses a data URI produced by Prepare back into an image.
func Decode(dataURI string) (image.Image, error) {
	if len(dataURI) < len(dataURIPrefix) || dataURI[:len(dataURIPrefix)] != dataURIPrefix {
		return nil, fmt.Errorf("%w: not a jpeg data uri", domain.ErrInvalidImage)
	}
	raw, err := base64.StdEncoding.DecodeString(dataURI[len(dataURIPrefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}
	return img, nil
}

func (p *Preparer) maxSide() int {
	if p.MaxSide <= 0 {
		return DefaultMaxSide
	}
	return p.MaxSide
}

func (p *Preparer) maxPixels() int {
	if p.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return p.MaxPixels
}

func (p *Preparer) quality() int {
	if p.Quality <= 0 || p.Quality > 100 {
		return DefaultQuality
	}
	return p.Quality
}

// Bounds returns the size an image of w x h gets after fitting into maxSide.
func Bounds(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide {
		return w, h
	}
	if w >= h {
		nh := h * maxSide / w
		return maxSide, max(nh, 1)
	}
	nw := w * maxSide / h
	return max(nw, 1), maxSide
}

func resize(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := Bounds(b.Dx(), b.Dy(), maxSide)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// toRGB flattens transparency onto white so alpha never leaks into the JPEG.
func toRGB(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, stddraw.Src)
	stddraw.Draw(dst, dst.Bounds(), src, b.Min, stddraw.Over)
	return dst
}
