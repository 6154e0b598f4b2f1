package compose

// Kind discriminates layout block variants.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindTable     Kind = "table"
	KindImage     Kind = "image"
	KindSpacer    Kind = "spacer"
)

// Align positions text within its box.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Style describes text emphasis for a block or cell. Zero values mean
// the renderer's defaults.
type Style struct {
	Bold  bool
	Size  float64
	Align Align
	Color string
}

// Cell is a single table cell.
type Cell struct {
	Text  string
	Style Style
}

// Table is a renderer-agnostic grid. Widths are column widths in
// millimetres; Header may be empty for borderless key-value tables.
type Table struct {
	Widths     []float64
	Header     []Cell
	Rows       [][]Cell
	HeaderFill string
	Grid       bool
}

// Image is an embedded picture, typically the seller logo.
type Image struct {
	Data    []byte
	Format  string
	WidthMM float64
}

// Block is one element of the composed document, in display order.
// Exactly the fields relevant to its Kind are set.
type Block struct {
	Kind  Kind
	Text  string
	Style Style
	Table *Table
	Image *Image
	GapMM float64
}
