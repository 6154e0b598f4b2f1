package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Invoice is the aggregate root of an editing session. The line item
// sequence is owned by the invoice and mutated only through AddItem,
// UpdateItem and RemoveItem; display order is insertion order and
// duplicates are allowed.
type Invoice struct {
	Seller  PartyInfo
	Buyer   PartyInfo
	Meta    InvoiceMeta
	Bank    *BankDetails
	TaxRate decimal.Decimal

	items []LineItem
}

// New builds an invoice with the default tax rate and no line items.
func New(seller, buyer PartyInfo, meta InvoiceMeta) *Invoice {
	return &Invoice{
		Seller:  seller,
		Buyer:   buyer,
		Meta:    meta,
		TaxRate: DefaultTaxRate,
	}
}

// Items returns a copy of the line item sequence in display order.
func (inv *Invoice) Items() []LineItem {
	out := make([]LineItem, len(inv.items))
	copy(out, inv.items)
	return out
}

// ItemCount returns the number of line items.
func (inv *Invoice) ItemCount() int {
	return len(inv.items)
}

// AddItem validates and appends a line item at the end of the sequence.
func (inv *Invoice) AddItem(description string, quantity int, unitRate decimal.Decimal) (LineItem, error) {
	item := LineItem{
		Description: strings.TrimSpace(description),
		Quantity:    quantity,
		UnitRate:    unitRate,
	}
	if err := validateItem(item); err != nil {
		return LineItem{}, err
	}
	inv.items = append(inv.items, item)
	return item, nil
}

// UpdateItem applies a patch to the item at index. The sequence is left
// unchanged when the index is out of bounds or the patched item fails
// validation.
func (inv *Invoice) UpdateItem(index int, patch ItemPatch) error {
	if index < 0 || index >= len(inv.items) {
		return ErrIndexOutOfRange
	}
	item := inv.items[index]
	if patch.Description != nil {
		item.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.UnitRate != nil {
		item.UnitRate = *patch.UnitRate
	}
	if err := validateItem(item); err != nil {
		return err
	}
	inv.items[index] = item
	return nil
}

// RemoveItem deletes the item at index, preserving the relative order
// of the remainder.
func (inv *Invoice) RemoveItem(index int) error {
	if index < 0 || index >= len(inv.items) {
		return ErrIndexOutOfRange
	}
	inv.items = append(inv.items[:index], inv.items[index+1:]...)
	return nil
}

// ComputeTotals derives subtotal, tax and total from the current line
// items. Zero items yields all-zero totals. Rounding happens only at
// formatting time, so accumulation never drifts.
func (inv *Invoice) ComputeTotals() Totals {
	subtotal := decimal.Zero
	for _, item := range inv.items {
		subtotal = subtotal.Add(item.Amount())
	}
	tax := subtotal.Mul(inv.TaxRate)
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}

func validateItem(item LineItem) error {
	if item.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if item.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if item.UnitRate.IsNegative() {
		return &ValidationError{Field: "unit_rate", Reason: "must not be negative"}
	}
	return nil
}
