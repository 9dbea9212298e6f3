// Package money converts catalog prices, stored in the API's canonical
// currency, into the visitor's display currency and formats them.
package money

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Base is the currency the API stores prices in.
const Base = "USD"

type Currency struct {
	Code   string
	Symbol string
	Name   string
	// Rate is the number of units of this currency per unit of Base.
	Rate decimal.Decimal
	// Pattern is a go-humanize FormatFloat pattern.
	Pattern string
	// Suffix renders the symbol after the number.
	Suffix bool

	unit currency.Unit
}

var table = map[string]Currency{
	"USD": newCurrency("USD", "$", "US Dollar", "1", "#,###.##", false),
	"EUR": newCurrency("EUR", "€", "Euro", "0.92", "#.###,##", true),
	"GBP": newCurrency("GBP", "£", "British Pound", "0.79", "#,###.##", false),
	"INR": newCurrency("INR", "₹", "Indian Rupee", "83.12", "#,###.##", false),
	"COP": newCurrency("COP", "COL$", "Peso colombiano", "3950", "#.###,", false),
}

func newCurrency(code, symbol, name, rate, pattern string, suffix bool) Currency {
	return Currency{
		Code:    code,
		Symbol:  symbol,
		Name:    name,
		Rate:    decimal.RequireFromString(rate),
		Pattern: pattern,
		Suffix:  suffix,
		unit:    currency.MustParseISO(code),
	}
}

// Lookup returns the currency for code, falling back to Base.
func Lookup(code string) Currency {
	if c, ok := table[strings.ToUpper(code)]; ok {
		return c
	}
	return table[Base]
}

// Valid reports whether code is a supported display currency.
func Valid(code string) bool {
	_, ok := table[strings.ToUpper(code)]
	return ok
}

// Supported lists display currencies sorted by code, Base first.
func Supported() []Currency {
	out := make([]Currency, 0, len(table))
	for _, c := range table {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code == Base || out[j].Code == Base {
			return out[i].Code == Base
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Scale is the number of fraction digits used for amounts in c.
func (c Currency) Scale() int32 {
	if strings.HasSuffix(c.Pattern, ".") || strings.HasSuffix(c.Pattern, ",") {
		return 0
	}
	scale, _ := currency.Standard.Rounding(c.unit)
	return int32(scale)
}

// Convert turns a Base amount into c, rounded to c's scale.
func Convert(amount decimal.Decimal, c Currency) decimal.Decimal {
	return amount.Mul(c.Rate).Round(c.Scale())
}

// Format converts a Base amount to code and renders it with the currency
// symbol, e.g. "$1,234.50" or "1.234,50 €".
func Format(amount decimal.Decimal, code string) string {
	c := Lookup(code)
	v := Convert(amount, c)
	neg := v.IsNegative()
	f, _ := v.Abs().Float64()
	num := humanize.FormatFloat(c.Pattern, f)
	var s string
	if c.Suffix {
		s = num + " " + c.Symbol
	} else {
		s = c.Symbol + num
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatFloat is Format for float64 amounts as decoded from API JSON.
func FormatFloat(amount float64, code string) string {
	return Format(decimal.NewFromFloat(amount), code)
}

// String renders c for pickers, e.g. "EUR (€)".
func (c Currency) String() string {
	return fmt.Sprintf("%s (%s)", c.Code, c.Symbol)
}

var (
	langTags = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.MustParse("en-IN"),
		language.MustParse("hi"),
		language.MustParse("es-CO"),
		language.German,
		language.French,
		language.Spanish,
		language.Italian,
		language.Dutch,
	}
	langCurrency = []string{"USD", "GBP", "INR", "INR", "COP", "EUR", "EUR", "EUR", "EUR", "EUR"}
	matcher      = language.NewMatcher(langTags)
)

// Negotiate picks a display currency from an Accept-Language header.
func Negotiate(acceptLanguage string) string {
	if acceptLanguage == "" {
		return Base
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Base
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Base
	}
	return langCurrency[idx]
}
