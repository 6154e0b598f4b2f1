// Command invoicectl renders an invoice PDF from a JSON payload,
// without the web editor or any session state.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/elitepdf/invoicegen/internal/compose"
	"github.com/elitepdf/invoicegen/internal/invoice"
	"github.com/elitepdf/invoicegen/internal/render"
)

const dateInputLayout = "2006-01-02"

type partyPayload struct {
	Name         string   `json:"name" validate:"required"`
	AddressLines []string `json:"address_lines"`
	TaxID        string   `json:"tax_id"`
	Contact      string   `json:"contact"`
}

type itemPayload struct {
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	UnitRate    string `json:"unit_rate" validate:"required"`
}

type bankPayload struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	IFSC          string `json:"ifsc"`
}

type invoicePayload struct {
	Number    string        `json:"number" validate:"required"`
	IssueDate string        `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate   string        `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Seller    partyPayload  `json:"seller"`
	Buyer     partyPayload  `json:"buyer"`
	Bank      *bankPayload  `json:"bank"`
	Items     []itemPayload `json:"items" validate:"dive"`
	ShowBank  bool          `json:"show_bank"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "invoicectl:", err)
		if errors.Is(err, invoice.ErrValidation) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func run() error {
	var (
		inPath       = flag.String("in", "", "path to the invoice payload JSON (required)")
		outPath      = flag.String("out", "", "output PDF path (default Invoice_<number>.pdf)")
		title        = flag.String("title", "INVOICE", "document title")
		currency     = flag.String("currency", compose.DefaultCurrencySymbol, "currency symbol")
		taxRate      = flag.String("tax-rate", "", "tax rate as a decimal fraction, e.g. 0.18")
		logoPath     = flag.String("logo", "", "optional logo image (png or jpg)")
		backend      = flag.String("renderer", "fpdf", "pdf backend: fpdf or gotenberg")
		gotenbergURL = flag.String("gotenberg-url", "http://127.0.0.1:3000", "gotenberg base url")
	)
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		return errors.New("-in is required")
	}

	raw, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	var payload invoicePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := validator.New().Struct(payload); err != nil {
		return fmt.Errorf("%w: %s", invoice.ErrValidation, validationSummary(err))
	}

	inv, err := buildInvoice(payload, *taxRate)
	if err != nil {
		return err
	}

	opts := compose.Options{
		Title:           *title,
		CurrencySymbol:  *currency,
		ShowBankDetails: payload.ShowBank,
	}
	if *logoPath != "" {
		data, err := os.ReadFile(*logoPath)
		if err != nil {
			return fmt.Errorf("read logo: %w", err)
		}
		opts.Logo = data
		opts.LogoFormat = "PNG"
		switch strings.ToLower(filepath.Ext(*logoPath)) {
		case ".jpg", ".jpeg":
			opts.LogoFormat = "JPG"
		}
	}

	blocks, err := compose.Compose(inv, opts)
	if err != nil {
		return err
	}

	var renderer render.Renderer
	switch *backend {
	case "fpdf":
		renderer = render.NewFPDF()
	case "gotenberg":
		renderer = render.NewGotenberg(*gotenbergURL)
	default:
		return fmt.Errorf("unknown renderer %q", *backend)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	pdf, err := renderer.Render(ctx, blocks, render.DefaultPage)
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	out := *outPath
	if out == "" {
		out = "Invoice_" + sanitizeFilename(payload.Number) + ".pdf"
	}
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Println("wrote", out)
	return nil
}

func buildInvoice(payload invoicePayload, taxRate string) (*invoice.Invoice, error) {
	meta := invoice.InvoiceMeta{Number: payload.Number}
	meta.IssueDate, _ = time.Parse(dateInputLayout, payload.IssueDate)
	if payload.DueDate != "" {
		meta.DueDate, _ = time.Parse(dateInputLayout, payload.DueDate)
	}

	inv := invoice.New(toParty(payload.Seller), toParty(payload.Buyer), meta)
	if payload.Bank != nil {
		inv.Bank = &invoice.BankDetails{
			AccountName:   payload.Bank.AccountName,
			AccountNumber: payload.Bank.AccountNumber,
			BankName:      payload.Bank.BankName,
			IFSC:          payload.Bank.IFSC,
		}
	}
	if taxRate != "" {
		rate, err := decimal.NewFromString(taxRate)
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("%w: tax-rate: must be a non-negative decimal", invoice.ErrValidation)
		}
		inv.TaxRate = rate
	}

	for i, item := range payload.Items {
		rate, err := decimal.NewFromString(item.UnitRate)
		if err != nil {
			return nil, fmt.Errorf("%w: items[%d].unit_rate: must be a decimal amount", invoice.ErrValidation, i)
		}
		if _, err := inv.AddItem(item.Description, item.Quantity, rate); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return inv, nil
}

func toParty(p partyPayload) invoice.PartyInfo {
	return invoice.PartyInfo{
		Name:         p.Name,
		AddressLines: p.AddressLines,
		TaxID:        p.TaxID,
		Contact:      p.Contact,
	}
}

func sanitizeFilename(number string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, number)
}

func validationSummary(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, strings.ToLower(fe.Namespace())+" "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
