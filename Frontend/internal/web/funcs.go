package web

import (
	"bytes"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/money"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/pricing"
)

var (
	md     = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy = bluemonday.UGCPolicy()
)

// Markdown renders user-authored text (book descriptions, author bios,
// reviews) to sanitized HTML.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// Funcs is the FuncMap every page template can use. now is injectable for
// tests.
func Funcs(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"money": money.FormatFloat,
		"moneyDec": func(d decimal.Decimal, code string) string {
			return money.Format(d, code)
		},
		"finalPrice": func(price float64, d any) float64 {
			return pricing.FinalPriceFloat(price, asDeal(d), now())
		},
		"discount": func(price float64, d any) int {
			return pricing.DiscountPercent(decimal.NewFromFloat(price), asDeal(d), now())
		},
		"dealActive": func(d any) bool { return asDeal(d).ActiveAt(now()) },
		"endsIn": func(d any) string {
			deal := asDeal(d)
			if deal.Remaining(now()) <= 0 {
				return ""
			}
			return humanize.RelTime(deal.EndDate, now(), "ago", "left")
		},
		"ago":      humanize.Time,
		"date":     func(t time.Time) string { return t.Format("Jan 2, 2006") },
		"comma":    func(n int) string { return humanize.Comma(int64(n)) },
		"markdown": Markdown,
		"stars":    stars,
		"add":      func(a, b int) int { return a + b },
		"dict":     dict,
		"pages":    pageRange,
		"pageURL":  pageURL,
		"hasID": func(ids []string, id string) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
	}
}

// asDeal accepts deals by value (ranged slices) or by pointer (book
// fields).
func asDeal(v any) *pricing.Deal {
	switch d := v.(type) {
	case *pricing.Deal:
		return d
	case pricing.Deal:
		return &d
	}
	return nil
}

// dict builds a map from alternating keys and values so partials can take
// more than one argument.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

// stars renders a 0-5 rating as filled and empty stars. Book ratings are
// averages, review ratings whole numbers.
func stars(rating any) string {
	var n int
	switch v := rating.(type) {
	case int:
		n = v
	case float64:
		n = int(v + 0.5)
	}
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func pageRange(total int) []int {
	out := make([]int, total)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// pageURL rewrites the page parameter of a list URL, keeping filters.
func pageURL(u *url.URL, page int) string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	return u.Path + "?" + q.Encode()
}
