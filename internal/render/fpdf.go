package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/elitepdf/invoicegen/internal/compose"
)

const (
	defaultFontSize = 10
	cellHeight      = 7
)

// FPDF renders blocks locally with core PDF fonts. No external service
// is involved.
type FPDF struct{}

// NewFPDF returns the local PDF renderer.
func NewFPDF() *FPDF {
	return &FPDF{}
}

// Render lays the blocks out top to bottom on the configured page.
func (f *FPDF) Render(ctx context.Context, blocks []compose.Block, cfg PageConfig) ([]byte, error) {
	cfg = cfg.withDefaults()

	pdf := gofpdf.New(cfg.Orientation, "mm", cfg.Size, "")
	pdf.SetMargins(cfg.MarginMM, cfg.MarginMM, cfg.MarginMM)
	pdf.SetAutoPageBreak(true, cfg.MarginMM)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*cfg.MarginMM

	for i, block := range blocks {
		switch block.Kind {
		case compose.KindHeading, compose.KindParagraph:
			writeText(pdf, tr, block)
		case compose.KindSpacer:
			pdf.Ln(block.GapMM)
		case compose.KindTable:
			writeTable(pdf, tr, block.Table, contentWidth)
		case compose.KindImage:
			if err := writeImage(pdf, block.Image, i, cfg.MarginMM); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("render: unknown block kind %q", block.Kind)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeText(pdf *gofpdf.Fpdf, tr func(string) string, block compose.Block) {
	applyTextStyle(pdf, block.Style)
	size := block.Style.Size
	if size == 0 {
		size = defaultFontSize
	}
	pdf.CellFormat(0, size*0.5+2, tr(sanitize(block.Text)), "", 1, alignLetter(block.Style.Align), false, 0, "")
}

func writeTable(pdf *gofpdf.Fpdf, tr func(string) string, table *compose.Table, contentWidth float64) {
	if table == nil {
		return
	}
	widths := scaleWidths(table.Widths, contentWidth)

	if len(table.Header) > 0 {
		r, g, b := parseHexColor(table.HeaderFill)
		pdf.SetFillColor(r, g, b)
		for i, cell := range table.Header {
			applyTextStyle(pdf, cell.Style)
			pdf.CellFormat(widths[i], cellHeight, tr(sanitize(cell.Text)), border(table), 0, alignLetter(cell.Style.Align), table.HeaderFill != "", 0, "")
		}
		pdf.Ln(-1)
	}

	for _, row := range table.Rows {
		for i, cell := range row {
			applyTextStyle(pdf, cell.Style)
			pdf.CellFormat(widths[i], cellHeight, tr(sanitize(cell.Text)), border(table), 0, alignLetter(cell.Style.Align), false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeImage(pdf *gofpdf.Fpdf, img *compose.Image, ordinal int, marginMM float64) error {
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	format := img.Format
	if format == "" {
		format = "PNG"
	}
	name := "img-" + strconv.Itoa(ordinal)
	opts := gofpdf.ImageOptions{ImageType: format}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if pdf.Err() {
		return fmt.Errorf("render: register image: %w", pdf.Error())
	}
	pdf.ImageOptions(name, marginMM, pdf.GetY(), img.WidthMM, 0, true, opts, 0, "")
	if pdf.Err() {
		return fmt.Errorf("render: place image: %w", pdf.Error())
	}
	return nil
}

func applyTextStyle(pdf *gofpdf.Fpdf, style compose.Style) {
	fontStyle := ""
	if style.Bold {
		fontStyle = "B"
	}
	size := style.Size
	if size == 0 {
		size = defaultFontSize
	}
	pdf.SetFont("Helvetica", fontStyle, size)
	r, g, b := parseHexColor(style.Color)
	pdf.SetTextColor(r, g, b)
	pdf.SetDrawColor(0xcc, 0xcc, 0xcc)
}

func scaleWidths(widths []float64, contentWidth float64) []float64 {
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total <= 0 {
		return widths
	}
	scaled := make([]float64, len(widths))
	for i, w := range widths {
		scaled[i] = w / total * contentWidth
	}
	return scaled
}

func border(table *compose.Table) string {
	if table.Grid {
		return "1"
	}
	return ""
}

func alignLetter(a compose.Align) string {
	switch a {
	case compose.AlignCenter:
		return "C"
	case compose.AlignRight:
		return "R"
	default:
		return "L"
	}
}

// Core PDF fonts are cp1252 and have no rupee glyph; substitute a
// readable fallback before translating.
func sanitize(text string) string {
	return strings.ReplaceAll(text, "₹", "Rs.")
}

func parseHexColor(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
