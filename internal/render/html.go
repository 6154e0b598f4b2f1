package render

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"

	"github.com/elitepdf/invoicegen/internal/compose"
)

// buildHTML produces a standalone HTML document from the block
// sequence, suitable for Chromium-based PDF conversion.
func buildHTML(blocks []compose.Block) string {
	var sb strings.Builder
	sb.WriteString(`<!doctype html><html><head><meta charset="utf-8"><style>`)
	sb.WriteString(`body{font-family:Helvetica,Arial,sans-serif;margin:0;color:#000}`)
	sb.WriteString(`table{border-collapse:collapse;width:100%}`)
	sb.WriteString(`td,th{padding:4px 6px}`)
	sb.WriteString(`p{margin:2px 0}`)
	sb.WriteString(`</style></head><body>`)

	for _, block := range blocks {
		switch block.Kind {
		case compose.KindHeading:
			sb.WriteString(`<h1 style="` + styleAttr(block.Style) + `">` + html.EscapeString(block.Text) + `</h1>`)
		case compose.KindParagraph:
			sb.WriteString(`<p style="` + styleAttr(block.Style) + `">` + html.EscapeString(block.Text) + `</p>`)
		case compose.KindSpacer:
			fmt.Fprintf(&sb, `<div style="height:%.1fmm"></div>`, block.GapMM)
		case compose.KindTable:
			writeHTMLTable(&sb, block.Table)
		case compose.KindImage:
			writeHTMLImage(&sb, block.Image)
		}
	}

	sb.WriteString(`</body></html>`)
	return sb.String()
}

func writeHTMLTable(sb *strings.Builder, table *compose.Table) {
	if table == nil {
		return
	}
	cellBorder := ""
	if table.Grid {
		cellBorder = "border:0.5px solid #cccccc;"
	}

	sb.WriteString(`<table><colgroup>`)
	total := 0.0
	for _, w := range table.Widths {
		total += w
	}
	for _, w := range table.Widths {
		fmt.Fprintf(sb, `<col style="width:%.1f%%">`, w/total*100)
	}
	sb.WriteString(`</colgroup>`)

	if len(table.Header) > 0 {
		fill := ""
		if table.HeaderFill != "" {
			fill = "background:" + table.HeaderFill + ";"
		}
		sb.WriteString(`<tr>`)
		for _, cell := range table.Header {
			sb.WriteString(`<th style="` + fill + cellBorder + styleAttr(cell.Style) + `">` + html.EscapeString(cell.Text) + `</th>`)
		}
		sb.WriteString(`</tr>`)
	}

	for _, row := range table.Rows {
		sb.WriteString(`<tr>`)
		for _, cell := range row {
			sb.WriteString(`<td style="` + cellBorder + styleAttr(cell.Style) + `">` + html.EscapeString(cell.Text) + `</td>`)
		}
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</table>`)
}

func writeHTMLImage(sb *strings.Builder, img *compose.Image) {
	if img == nil || len(img.Data) == 0 {
		return
	}
	mime := "image/png"
	if strings.EqualFold(img.Format, "JPG") || strings.EqualFold(img.Format, "JPEG") {
		mime = "image/jpeg"
	}
	fmt.Fprintf(sb, `<img src="data:%s;base64,%s" style="width:%.1fmm">`,
		mime, base64.StdEncoding.EncodeToString(img.Data), img.WidthMM)
}

func styleAttr(style compose.Style) string {
	var parts []string
	if style.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if style.Size > 0 {
		parts = append(parts, fmt.Sprintf("font-size:%.0fpt", style.Size))
	}
	if style.Align != "" {
		parts = append(parts, "text-align:"+string(style.Align))
	}
	if style.Color != "" {
		parts = append(parts, "color:"+style.Color)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ";") + ";"
}
