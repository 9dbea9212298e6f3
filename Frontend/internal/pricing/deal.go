package pricing

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type DealType string

const (
	FlashSale   DealType = "flash_sale"
	BOGO        DealType = "bogo"
	Seasonal    DealType = "seasonal"
	LimitedTime DealType = "limited_time"
)

// Label is the badge text shown next to prices.
func (t DealType) Label() string {
	switch t {
	case FlashSale:
		return "Flash Sale"
	case BOGO:
		return "Buy One Get One"
	case Seasonal:
		return "Seasonal"
	case LimitedTime:
		return "Limited Time"
	}
	return "Deal"
}

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

// Deal mirrors the promotion document returned by the API.
type Deal struct {
	ID            string       `json:"_id"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Type          DealType     `json:"dealType"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
	StartDate     time.Time    `json:"startDate"`
	EndDate       time.Time    `json:"endDate"`
	IsActive      bool         `json:"isActive"`
	Books         []string     `json:"applicableBooks,omitempty"`
	Genres        []string     `json:"applicableGenres,omitempty"`
}

// ActiveAt reports whether d is enabled and t falls inside its window.
// A zero start or end leaves that side of the window open.
func (d *Deal) ActiveAt(t time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if !d.StartDate.IsZero() && t.Before(d.StartDate) {
		return false
	}
	if !d.EndDate.IsZero() && t.After(d.EndDate) {
		return false
	}
	return true
}

// AppliesTo reports whether d targets the book directly or via one of its
// genres.
func (d *Deal) AppliesTo(bookID string, genreIDs []string) bool {
	if d == nil {
		return false
	}
	if slices.Contains(d.Books, bookID) {
		return true
	}
	for _, g := range genreIDs {
		if slices.Contains(d.Genres, g) {
			return true
		}
	}
	return false
}

// Remaining is the time left before d ends; zero when ended or open-ended.
func (d *Deal) Remaining(now time.Time) time.Duration {
	if d == nil || d.EndDate.IsZero() || !now.Before(d.EndDate) {
		return 0
	}
	return d.EndDate.Sub(now)
}

// FinalPrice applies d to price at now. BOGO deals and deals outside their
// window leave the unit price unchanged.
func FinalPrice(price decimal.Decimal, d *Deal, now time.Time) decimal.Decimal {
	if !d.ActiveAt(now) || d.Type == BOGO {
		return price
	}
	v := decimal.NewFromFloat(d.DiscountValue)
	var out decimal.Decimal
	switch d.DiscountType {
	case Percentage:
		if v.GreaterThan(decimal.NewFromInt(100)) {
			v = decimal.NewFromInt(100)
		}
		out = price.Sub(price.Mul(v).Div(decimal.NewFromInt(100)))
	case Fixed:
		out = price.Sub(v)
	default:
		return price
	}
	if out.IsNegative() {
		return decimal.Zero
	}
	return out.Round(2)
}

// DiscountPercent is the whole-number percentage shown on a deal badge.
func DiscountPercent(price decimal.Decimal, d *Deal, now time.Time) int {
	if price.Sign() <= 0 {
		return 0
	}
	final := FinalPrice(price, d, now)
	pct := price.Sub(final).Div(price).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

// FinalPriceFloat is FinalPrice over float64 API prices.
func FinalPriceFloat(price float64, d *Deal, now time.Time) float64 {
	f, _ := FinalPrice(decimal.NewFromFloat(price), d, now).Float64()
	return f
}
