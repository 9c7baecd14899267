// Package thumbnail generates and size-bounds article thumbnail images.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

const (
	// DefaultMaxBytes is the byte ceiling for encoded thumbnails.
	DefaultMaxBytes = 1_000_000

	maxQuality  = 100
	minQuality  = 30
	qualityStep = 5
)

// Backend is the generative image backend. One call per thumbnail, no retry.
type Backend interface {
	Image(ctx context.Context, prompt string) ([]byte, error)
}

// Generator produces JPEG thumbnails under a byte ceiling.
type Generator struct {
	backend  Backend
	maxBytes int
}

// NewGenerator creates a Generator. maxBytes <= 0 uses DefaultMaxBytes.
func NewGenerator(backend Backend, maxBytes int) *Generator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Generator{backend: backend, maxBytes: maxBytes}
}

// Generate requests one image for the article title and re-encodes it under
// the byte ceiling. Errors are non-fatal to the article: the caller persists
// the record without an image.
func (g *Generator) Generate(ctx context.Context, title string) ([]byte, error) {
	raw, err := g.backend.Image(ctx, prompt(title))
	if err != nil {
		return nil, fmt.Errorf("image backend: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding generated image: %w", err)
	}

	return g.reencode(img)
}

// prompt builds the image request from the original (not emojipasta) title.
func prompt(title string) string {
	return fmt.Sprintf(
		"Generate a news article thumbnail for the headline: '%s'. "+
			"Make sure the content of the image is extremely exaggerated. "+
			"If there are people, make them have big faces and exaggerated expressions.",
		title,
	)
}

// reencode converts img to a single color model and encodes it as JPEG,
// stepping quality down until the result fits the ceiling or the quality
// floor is reached. The final bytes are returned either way; size alone
// never fails a thumbnail.
func (g *Generator) reencode(img image.Image) ([]byte, error) {
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var data []byte
	for quality := maxQuality; ; quality -= qualityStep {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, rgba, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encoding thumbnail: %w", err)
		}
		data = buf.Bytes()

		if len(data) <= g.maxBytes || quality-qualityStep < minQuality {
			return data, nil
		}
	}
}
