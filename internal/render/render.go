// Package render turns composed layout blocks into final document
// bytes. Two backends exist: a local pure-Go PDF writer (fpdf) and a
// Gotenberg client that converts generated HTML over HTTP.
package render

import (
	"context"

	"github.com/elitepdf/invoicegen/internal/compose"
)

// Renderer produces document bytes from a block sequence.
type Renderer interface {
	Render(ctx context.Context, blocks []compose.Block, cfg PageConfig) ([]byte, error)
}

// PageConfig specifies page size and margins.
type PageConfig struct {
	Size        string
	Orientation string
	MarginMM    float64
}

// DefaultPage is portrait A4 with 20mm margins.
var DefaultPage = PageConfig{Size: "A4", Orientation: "P", MarginMM: 20}

func (c PageConfig) withDefaults() PageConfig {
	if c.Size == "" {
		c.Size = DefaultPage.Size
	}
	if c.Orientation == "" {
		c.Orientation = DefaultPage.Orientation
	}
	if c.MarginMM <= 0 {
		c.MarginMM = DefaultPage.MarginMM
	}
	return c
}
