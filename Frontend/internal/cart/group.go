// Package cart shapes the API's cart lines for display.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/pricing"
)

// Row is one displayed cart line. Paid and free (BOGO) units of the same
// book under the same deal are merged into a single row.
type Row struct {
	Book       api.Book
	Deal       *pricing.Deal
	PaidQty    int
	FreeQty    int
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
	Savings    decimal.Decimal
	PaidItemID string
	FreeItemID string
}

// Qty is the number of units the customer receives.
func (r Row) Qty() int { return r.PaidQty + r.FreeQty }

// IsBOGO reports whether the row carries free units.
func (r Row) IsBOGO() bool { return r.FreeQty > 0 }

// ItemID is the line the quantity controls act on.
func (r Row) ItemID() string {
	if r.PaidItemID != "" {
		return r.PaidItemID
	}
	return r.FreeItemID
}

type key struct{ book, deal string }

// GroupForDisplay merges lines that reference the same book/deal pair,
// keeping first-seen order. Free units are counted separately and never
// priced.
//
// UnitPrice is the average charged price of the paid units. Savings adds
// the list-to-charged gap of every paid line and values free units at
// UnitPrice.
func GroupForDisplay(items []api.CartItem) []Row {
	rows := make([]Row, 0, len(items))
	index := make(map[key]int, len(items))
	for _, it := range items {
		k := key{book: it.Book.ID}
		if it.Deal != nil {
			k.deal = it.Deal.ID
		}
		i, ok := index[k]
		if !ok {
			rows = append(rows, Row{Book: it.Book, Deal: it.Deal})
			i = len(rows) - 1
			index[k] = i
		}
		r := &rows[i]
		if it.IsFreeItem {
			r.FreeQty += it.Quantity
			if r.FreeItemID == "" {
				r.FreeItemID = it.ID
			}
			continue
		}
		r.PaidQty += it.Quantity
		if r.PaidItemID == "" {
			r.PaidItemID = it.ID
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		price := decimal.NewFromFloat(it.Price)
		r.LineTotal = r.LineTotal.Add(price.Mul(qty))
		if gap := decimal.NewFromFloat(it.Book.Price).Sub(price); gap.IsPositive() {
			r.Savings = r.Savings.Add(gap.Mul(qty))
		}
	}
	for i := range rows {
		r := &rows[i]
		// Rows made only of free units still show the book's list price.
		if r.PaidQty == 0 {
			r.UnitPrice = decimal.NewFromFloat(r.Book.Price)
		} else {
			r.UnitPrice = r.LineTotal.DivRound(decimal.NewFromInt(int64(r.PaidQty)), 2)
		}
		if r.FreeQty > 0 {
			r.Savings = r.Savings.Add(r.UnitPrice.Mul(decimal.NewFromInt(int64(r.FreeQty))))
		}
	}
	return rows
}

// Summary holds cart totals in the API's base currency.
type Summary struct {
	Subtotal  decimal.Decimal
	Savings   decimal.Decimal
	Total     decimal.Decimal
	Items     int
	FreeItems int
}

// Summarize totals rows.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		s.Subtotal = s.Subtotal.Add(r.LineTotal)
		s.Savings = s.Savings.Add(r.Savings)
		s.Items += r.Qty()
		s.FreeItems += r.FreeQty
	}
	s.Total = s.Subtotal
	return s
}
