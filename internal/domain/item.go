package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoTransactions is returned when an item's transaction history is empty.
var ErrNoTransactions = errors.New("item has no transactions")

// ChargeInformation describes what the member is billed for one item.
type ChargeInformation struct {
	Amount       decimal.Decimal `json:"amount"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Currency     string          `json:"currency"`
	DurationDays int             `json:"duration_days"`
}

// Total returns amount plus tax.
func (c ChargeInformation) Total() decimal.Decimal {
	return c.Amount.Add(c.TaxAmount)
}

// InitializedItem is one purchasable unit inside a purchase process: the main
// item or a cross-sale. Its transaction collection is append-only and strictly
// ordered by submission time, which the per-session mutex guarantees.
type InitializedItem struct {
	ItemID       string            `json:"item_id"`
	BundleID     string            `json:"bundle_id"`
	AddonID      string            `json:"addon_id,omitempty"`
	SiteID       string            `json:"site_id"`
	IsCrossSale  bool              `json:"is_cross_sale"`
	Charge       ChargeInformation `json:"charge_information"`
	Transactions []*Transaction    `json:"transactions"`
}

// AddTransaction appends a transaction to the item's history.
func (i *InitializedItem) AddTransaction(tx *Transaction) {
	i.Transactions = append(i.Transactions, tx)
}

// LastTransaction returns the most recently appended transaction.
func (i *InitializedItem) LastTransaction() (*Transaction, error) {
	if len(i.Transactions) == 0 {
		return nil, ErrNoTransactions
	}
	return i.Transactions[len(i.Transactions)-1], nil
}

// WasSuccessful reports whether the item's purchase went through: its last
// transaction must be approved.
func (i *InitializedItem) WasSuccessful() bool {
	last, err := i.LastTransaction()
	if err != nil {
		return false
	}
	return last.Approved()
}

// Unresolved reports whether the item still has a pending last transaction.
func (i *InitializedItem) Unresolved() bool {
	last, err := i.LastTransaction()
	if err != nil {
		return false
	}
	return last.Pending()
}
