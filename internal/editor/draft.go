package editor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/elitepdf/invoicegen/internal/invoice"
	"github.com/elitepdf/invoicegen/internal/shared"
)

// draftSessionKey stores the serialized invoice draft in the session.
const draftSessionKey = "invoice_draft"

// draftPayload is the session-serializable shape of an editing draft.
// The invoice aggregate is rebuilt through its mutation contract, so a
// tampered or stale payload can never smuggle in invalid line items.
type draftPayload struct {
	Seller   invoice.PartyInfo    `json:"seller"`
	Buyer    invoice.PartyInfo    `json:"buyer"`
	Meta     invoice.InvoiceMeta  `json:"meta"`
	Bank     *invoice.BankDetails `json:"bank,omitempty"`
	TaxRate  decimal.Decimal      `json:"tax_rate"`
	Items    []invoice.LineItem   `json:"items"`
	ShowBank bool                 `json:"show_bank"`
}

// Seed provides the starting values for a fresh draft, typically the
// seller identity from configuration.
type Seed struct {
	Seller  invoice.PartyInfo
	Bank    *invoice.BankDetails
	TaxRate decimal.Decimal
}

func newDraft(seed Seed) draftPayload {
	taxRate := seed.TaxRate
	if taxRate.IsZero() {
		taxRate = invoice.DefaultTaxRate
	}
	now := time.Now()
	return draftPayload{
		Seller: seed.Seller,
		Meta: invoice.InvoiceMeta{
			Number: nextInvoiceNumber(now),
			// Midnight in the server's zone, not the UTC day.
			IssueDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		},
		Bank:    seed.Bank,
		TaxRate: taxRate,
	}
}

// nextInvoiceNumber derives a fresh document number. Uniqueness across
// sessions is the caller's concern; this only avoids collisions within
// casual use.
func nextInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("INV-%s-%s", now.Format("2006"), suffix)
}

func loadDraft(sess *shared.Session, seed Seed) (draftPayload, error) {
	raw := sess.Get(draftSessionKey)
	if raw == "" {
		// Store the seeded draft right away so the generated invoice
		// number is stable across requests.
		d := newDraft(seed)
		if err := saveDraft(sess, d); err != nil {
			return draftPayload{}, err
		}
		return d, nil
	}
	var d draftPayload
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return draftPayload{}, fmt.Errorf("editor: decode draft: %w", err)
	}
	return d, nil
}

func saveDraft(sess *shared.Session, d draftPayload) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("editor: encode draft: %w", err)
	}
	sess.Set(draftSessionKey, string(data))
	return nil
}

func clearDraft(sess *shared.Session) {
	sess.Delete(draftSessionKey)
}

// buildInvoice reconstructs the invoice aggregate from a draft, running
// every stored item through the validated AddItem path.
func buildInvoice(d draftPayload) (*invoice.Invoice, error) {
	inv := invoice.New(d.Seller, d.Buyer, d.Meta)
	inv.Bank = d.Bank
	if !d.TaxRate.IsZero() {
		inv.TaxRate = d.TaxRate
	}
	for i, item := range d.Items {
		if _, err := inv.AddItem(item.Description, item.Quantity, item.UnitRate); err != nil {
			return nil, fmt.Errorf("editor: rebuild item %d: %w", i, err)
		}
	}
	return inv, nil
}
