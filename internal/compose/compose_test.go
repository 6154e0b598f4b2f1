package compose

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/elitepdf/invoicegen/internal/invoice"
)

func exampleInvoice(t *testing.T) *invoice.Invoice {
	t.Helper()
	inv := invoice.New(
		invoice.PartyInfo{
			Name:         "Acme Labs Pvt. Ltd.",
			AddressLines: []string{"12 Industrial Estate", "Pune, Maharashtra - 411001"},
			TaxID:        "27AAAAA0000A1Z5",
		},
		invoice.PartyInfo{
			Name:         "Tech Solutions Hub",
			AddressLines: []string{"456 Innovation Drive", "Bengaluru, Karnataka - 560001"},
		},
		invoice.InvoiceMeta{
			Number:    "INV-2024-007",
			IssueDate: time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2024, 7, 29, 0, 0, 0, 0, time.UTC),
		},
	)
	_, err := inv.AddItem("Web Development Services", 1, decimal.NewFromFloat(25000.00))
	require.NoError(t, err)
	_, err = inv.AddItem("Monthly SEO Package", 2, decimal.NewFromFloat(5000.00))
	require.NoError(t, err)
	_, err = inv.AddItem("Graphic Design Consultation", 1, decimal.NewFromFloat(3000.00))
	require.NoError(t, err)
	return inv
}

func findTables(blocks []Block) []*Table {
	var tables []*Table
	for _, b := range blocks {
		if b.Kind == KindTable {
			tables = append(tables, b.Table)
		}
	}
	return tables
}

func TestComposeBlockOrder(t *testing.T) {
	blocks, err := Compose(exampleInvoice(t), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, blocks)

	require.Equal(t, KindHeading, blocks[0].Kind)
	require.Equal(t, "INVOICE", blocks[0].Text)

	var texts []string
	for _, b := range blocks {
		if b.Kind == KindParagraph {
			texts = append(texts, b.Text)
		}
	}
	// Seller precedes meta, meta precedes Bill To, terms precede signature.
	require.Less(t, indexOf(texts, "Acme Labs Pvt. Ltd."), indexOf(texts, "Invoice No: INV-2024-007"))
	require.Less(t, indexOf(texts, "Invoice No: INV-2024-007"), indexOf(texts, "Bill To:"))
	require.Less(t, indexOf(texts, "Bill To:"), indexOf(texts, "Terms & Conditions:"))
	require.Less(t, indexOf(texts, "Terms & Conditions:"), indexOf(texts, "(Authorized Signature)"))
}

func indexOf(texts []string, want string) int {
	for i, s := range texts {
		if s == want {
			return i
		}
	}
	return -1
}

func TestComposeDateFormat(t *testing.T) {
	blocks, err := Compose(exampleInvoice(t), Options{})
	require.NoError(t, err)

	var texts []string
	for _, b := range blocks {
		texts = append(texts, b.Text)
	}
	require.Contains(t, texts, "Invoice Date: 22-07-2024")
	require.Contains(t, texts, "Due Date: 29-07-2024")
}

func TestComposeItemsAndTotalsTables(t *testing.T) {
	blocks, err := Compose(exampleInvoice(t), Options{})
	require.NoError(t, err)

	tables := findTables(blocks)
	require.Len(t, tables, 2)

	items := tables[0]
	require.Equal(t, "S.No.", items.Header[0].Text)
	require.Equal(t, "Description", items.Header[1].Text)
	require.Equal(t, "Qty", items.Header[2].Text)
	require.Equal(t, "Rate", items.Header[3].Text)
	require.Equal(t, "Amount", items.Header[4].Text)
	require.Len(t, items.Rows, 3)
	require.Equal(t, "1", items.Rows[0][0].Text)
	require.Equal(t, "Web Development Services", items.Rows[0][1].Text)
	require.Equal(t, "₹ 25000.00", items.Rows[0][4].Text)
	require.Equal(t, "₹ 10000.00", items.Rows[1][4].Text)

	totals := tables[1]
	require.Len(t, totals.Rows, 3)
	require.Equal(t, "Subtotal:", totals.Rows[0][0].Text)
	require.Equal(t, "₹ 38000.00", totals.Rows[0][1].Text)
	require.Equal(t, "GST (18%):", totals.Rows[1][0].Text)
	require.Equal(t, "₹ 6840.00", totals.Rows[1][1].Text)
	require.Equal(t, "Total Amount:", totals.Rows[2][0].Text)
	require.Equal(t, "₹ 44840.00", totals.Rows[2][1].Text)
}

func TestComposeEmptyInvoiceIsDegenerateValid(t *testing.T) {
	inv := invoice.New(
		invoice.PartyInfo{Name: "Seller"},
		invoice.PartyInfo{Name: "Buyer"},
		invoice.InvoiceMeta{Number: "INV-0", IssueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	)

	blocks, err := Compose(inv, Options{})
	require.NoError(t, err)

	tables := findTables(blocks)
	require.Len(t, tables, 2)
	require.Len(t, tables[0].Header, 5)
	require.Empty(t, tables[0].Rows)
	require.Equal(t, "₹ 0.00", tables[1].Rows[0][1].Text)
	require.Equal(t, "₹ 0.00", tables[1].Rows[1][1].Text)
	require.Equal(t, "₹ 0.00", tables[1].Rows[2][1].Text)
}

func TestComposeIsDeterministic(t *testing.T) {
	inv := exampleInvoice(t)
	opts := Options{ShowBankDetails: true, Terms: []string{"Net 7."}}

	first, err := Compose(inv, opts)
	require.NoError(t, err)
	second, err := Compose(inv, opts)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestComposeCurrencySymbolOverride(t *testing.T) {
	blocks, err := Compose(exampleInvoice(t), Options{CurrencySymbol: "$"})
	require.NoError(t, err)

	totals := findTables(blocks)[1]
	require.Equal(t, "$ 44840.00", totals.Rows[2][1].Text)
}

func TestComposeLogoBlockFirst(t *testing.T) {
	blocks, err := Compose(exampleInvoice(t), Options{Logo: []byte{0x89, 0x50}, LogoFormat: "PNG"})
	require.NoError(t, err)

	require.Equal(t, KindImage, blocks[0].Kind)
	require.Equal(t, "PNG", blocks[0].Image.Format)
}

func TestComposeBankDetailsGated(t *testing.T) {
	inv := exampleInvoice(t)
	inv.Bank = &invoice.BankDetails{AccountName: "Acme Labs", AccountNumber: "0012345678", BankName: "HDFC Bank"}

	blocks, err := Compose(inv, Options{})
	require.NoError(t, err)
	require.Equal(t, -1, paragraphIndex(blocks, "Payment Details:"))

	blocks, err = Compose(inv, Options{ShowBankDetails: true})
	require.NoError(t, err)
	require.NotEqual(t, -1, paragraphIndex(blocks, "Payment Details:"))
	require.NotEqual(t, -1, paragraphIndex(blocks, "Account Number: 0012345678"))
}

func paragraphIndex(blocks []Block, text string) int {
	for i, b := range blocks {
		if b.Kind == KindParagraph && b.Text == text {
			return i
		}
	}
	return -1
}

func TestComposeRequiresPartyAndMeta(t *testing.T) {
	inv := invoice.New(invoice.PartyInfo{}, invoice.PartyInfo{Name: "Buyer"}, invoice.InvoiceMeta{Number: "X", IssueDate: time.Now()})
	_, err := Compose(inv, Options{})
	require.ErrorIs(t, err, invoice.ErrValidation)

	inv = invoice.New(invoice.PartyInfo{Name: "Seller"}, invoice.PartyInfo{Name: "Buyer"}, invoice.InvoiceMeta{})
	_, err = Compose(inv, Options{})
	require.ErrorIs(t, err, invoice.ErrValidation)
}
