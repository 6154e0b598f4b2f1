// Package compose turns an invoice snapshot into an ordered sequence of
// renderer-agnostic layout blocks. Composition is pure: no I/O, no
// clock, and identical inputs yield identical block sequences.
package compose

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/elitepdf/invoicegen/internal/invoice"
)

const (
	accentColor = "#1a73e8"
	gridColor   = "#cccccc"
	mutedColor  = "#808080"

	dateLayout = "02-01-2006"
)

// DefaultCurrencySymbol prefixes money values unless overridden.
const DefaultCurrencySymbol = "₹"

// DefaultTerms are emitted when the caller supplies none.
var DefaultTerms = []string{
	"Payment is due within 7 days of invoice date.",
	"Late payments will incur a 2% monthly interest.",
}

// Options tune a single composition. The zero value is usable.
type Options struct {
	Title           string
	CurrencySymbol  string
	Logo            []byte
	LogoFormat      string
	ShowBankDetails bool
	Terms           []string
}

// Compose builds the document block sequence for an invoice. It fails
// before emitting any block when a required field is missing; an empty
// line item list is valid and produces a header-only items table with
// all-zero totals.
func Compose(inv *invoice.Invoice, opts Options) ([]Block, error) {
	if err := checkRequired(inv); err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" {
		title = "INVOICE"
	}
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	terms := opts.Terms
	if len(terms) == 0 {
		terms = DefaultTerms
	}

	var blocks []Block

	if len(opts.Logo) > 0 {
		blocks = append(blocks, Block{Kind: KindImage, Image: &Image{
			Data:    opts.Logo,
			Format:  opts.LogoFormat,
			WidthMM: 40,
		}})
	}

	blocks = append(blocks,
		Block{Kind: KindHeading, Text: title, Style: Style{Bold: true, Size: 24, Align: AlignCenter, Color: accentColor}},
		Block{Kind: KindSpacer, GapMM: 5},
	)

	blocks = append(blocks, partyBlocks(inv.Seller, AlignRight)...)
	blocks = append(blocks, Block{Kind: KindSpacer, GapMM: 10})

	due := inv.Meta.EffectiveDueDate()
	blocks = append(blocks,
		metaLine("Invoice No: "+inv.Meta.Number),
		metaLine("Invoice Date: "+inv.Meta.IssueDate.Format(dateLayout)),
		metaLine("Due Date: "+due.Format(dateLayout)),
		Block{Kind: KindSpacer, GapMM: 5},
	)

	blocks = append(blocks, Block{Kind: KindParagraph, Text: "Bill To:", Style: Style{Bold: true, Size: 12}})
	blocks = append(blocks, partyBlocks(inv.Buyer, AlignLeft)...)
	blocks = append(blocks, Block{Kind: KindSpacer, GapMM: 15})

	blocks = append(blocks,
		Block{Kind: KindTable, Table: itemsTable(inv.Items(), symbol)},
		Block{Kind: KindSpacer, GapMM: 10},
		Block{Kind: KindTable, Table: totalsTable(inv.ComputeTotals(), inv.TaxRate, symbol)},
		Block{Kind: KindSpacer, GapMM: 15},
	)

	blocks = append(blocks, Block{Kind: KindParagraph, Text: "Terms & Conditions:", Style: Style{Bold: true, Size: 12}})
	for i, term := range terms {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: fmt.Sprintf("%d. %s", i+1, term), Style: Style{Size: 10}})
	}

	if opts.ShowBankDetails && inv.Bank != nil && inv.Bank.HasData() {
		blocks = append(blocks, bankBlocks(*inv.Bank)...)
	}

	blocks = append(blocks,
		Block{Kind: KindSpacer, GapMM: 20},
		Block{Kind: KindParagraph, Text: "For " + inv.Seller.Name, Style: Style{Bold: true, Size: 12, Align: AlignRight}},
		Block{Kind: KindSpacer, GapMM: 10},
		Block{Kind: KindParagraph, Text: "________________________", Style: Style{Bold: true, Size: 12, Align: AlignRight}},
		Block{Kind: KindParagraph, Text: "(Authorized Signature)", Style: Style{Size: 10, Align: AlignRight, Color: mutedColor}},
	)

	return blocks, nil
}

func checkRequired(inv *invoice.Invoice) error {
	if inv.Seller.Name == "" {
		return &invoice.ValidationError{Field: "seller.name", Reason: "required"}
	}
	if inv.Buyer.Name == "" {
		return &invoice.ValidationError{Field: "buyer.name", Reason: "required"}
	}
	if inv.Meta.Number == "" {
		return &invoice.ValidationError{Field: "meta.number", Reason: "required"}
	}
	if inv.Meta.IssueDate.IsZero() {
		return &invoice.ValidationError{Field: "meta.issue_date", Reason: "required"}
	}
	return nil
}

func partyBlocks(p invoice.PartyInfo, align Align) []Block {
	blocks := []Block{{Kind: KindParagraph, Text: p.Name, Style: Style{Bold: true, Size: 12, Align: align}}}
	addr := Style{Size: 10, Align: align, Color: mutedColor}
	if align == AlignLeft {
		addr.Color = ""
	}
	for _, line := range p.AddressLines {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: line, Style: addr})
	}
	if p.TaxID != "" {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: "GSTIN: " + p.TaxID, Style: addr})
	}
	if p.Contact != "" {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: p.Contact, Style: addr})
	}
	return blocks
}

func metaLine(text string) Block {
	return Block{Kind: KindParagraph, Text: text, Style: Style{Bold: true, Size: 10, Align: AlignRight, Color: accentColor}}
}

func itemsTable(items []invoice.LineItem, symbol string) *Table {
	headerStyle := Style{Bold: true, Size: 9, Align: AlignCenter, Color: "#ffffff"}
	table := &Table{
		Widths: []float64{10, 85, 20, 30, 35},
		Header: []Cell{
			{Text: "S.No.", Style: headerStyle},
			{Text: "Description", Style: headerStyle},
			{Text: "Qty", Style: headerStyle},
			{Text: "Rate", Style: headerStyle},
			{Text: "Amount", Style: headerStyle},
		},
		HeaderFill: accentColor,
		Grid:       true,
	}
	center := Style{Size: 9, Align: AlignCenter}
	right := Style{Size: 9, Align: AlignRight}
	for i, item := range items {
		table.Rows = append(table.Rows, []Cell{
			{Text: strconv.Itoa(i + 1), Style: center},
			{Text: item.Description, Style: center},
			{Text: strconv.Itoa(item.Quantity), Style: center},
			{Text: money(symbol, item.UnitRate), Style: right},
			{Text: money(symbol, item.Amount()), Style: right},
		})
	}
	return table
}

func totalsTable(totals invoice.Totals, taxRate decimal.Decimal, symbol string) *Table {
	label := Style{Bold: true, Size: 10, Align: AlignRight}
	value := Style{Size: 9, Align: AlignRight}
	grand := Style{Bold: true, Size: 12, Align: AlignRight, Color: accentColor}
	taxLabel := fmt.Sprintf("GST (%s%%):", taxRate.Mul(decimal.NewFromInt(100)).StringFixed(0))
	return &Table{
		Widths: []float64{120, 50},
		Rows: [][]Cell{
			{{Text: "Subtotal:", Style: label}, {Text: money(symbol, totals.Subtotal), Style: value}},
			{{Text: taxLabel, Style: label}, {Text: money(symbol, totals.TaxAmount), Style: value}},
			{{Text: "Total Amount:", Style: grand}, {Text: money(symbol, totals.Total), Style: grand}},
		},
		Grid: true,
	}
}

func bankBlocks(bank invoice.BankDetails) []Block {
	blocks := []Block{
		{Kind: KindSpacer, GapMM: 10},
		{Kind: KindParagraph, Text: "Payment Details:", Style: Style{Bold: true, Size: 12}},
	}
	line := Style{Size: 10}
	if bank.AccountName != "" {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: "Account Name: " + bank.AccountName, Style: line})
	}
	if bank.AccountNumber != "" {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: "Account Number: " + bank.AccountNumber, Style: line})
	}
	if bank.BankName != "" {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: "Bank: " + bank.BankName, Style: line})
	}
	if bank.IFSC != "" {
		blocks = append(blocks, Block{Kind: KindParagraph, Text: "IFSC: " + bank.IFSC, Style: line})
	}
	return blocks
}

func money(symbol string, d decimal.Decimal) string {
	return symbol + " " + d.StringFixed(2)
}
