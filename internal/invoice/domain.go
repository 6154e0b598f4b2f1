package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the GST rate applied unless the caller overrides it.
var DefaultTaxRate = decimal.NewFromFloat(0.18)

// DefaultDueDays is added to the issue date when no due date is given.
const DefaultDueDays = 7

// LineItem is one billable row of an invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
}

// Amount returns quantity times unit rate.
func (li LineItem) Amount() decimal.Decimal {
	return li.UnitRate.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// PartyInfo identifies the seller or the buyer on an invoice.
type PartyInfo struct {
	Name         string   `json:"name"`
	AddressLines []string `json:"address_lines"`
	TaxID        string   `json:"tax_id,omitempty"`
	Contact      string   `json:"contact,omitempty"`
}

// InvoiceMeta carries the document number and dates.
type InvoiceMeta struct {
	Number    string    `json:"number"`
	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date,omitempty"`
}

// EffectiveDueDate returns the due date, defaulting to issue date plus
// DefaultDueDays when unset.
func (m InvoiceMeta) EffectiveDueDate() time.Time {
	if !m.DueDate.IsZero() {
		return m.DueDate
	}
	return m.IssueDate.AddDate(0, 0, DefaultDueDays)
}

// BankDetails holds the seller's payment account information.
type BankDetails struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
	IFSC          string `json:"ifsc,omitempty"`
}

// HasData reports whether any bank field is filled in.
func (b BankDetails) HasData() bool {
	return b.AccountName != "" || b.AccountNumber != "" || b.BankName != "" || b.IFSC != ""
}

// Totals aggregates the derived money values of an invoice. They are
// recomputed from the line items on every call, never stored.
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// ItemPatch describes a partial update to a line item. Nil fields are
// left unchanged.
type ItemPatch struct {
	Description *string
	Quantity    *int
	UnitRate    *decimal.Decimal
}
