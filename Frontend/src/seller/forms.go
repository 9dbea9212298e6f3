package main

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

// Layout of <input type="datetime-local">. Deal windows are entered and
// shown in UTC.
const datetimeLayout = "2006-01-02T15:04"

func datetimeLocal(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(datetimeLayout)
}

// formReader pulls typed values out of a posted form and collects the
// fields that did not parse.
type formReader struct {
	r    *http.Request
	errs web.FieldErrors
}

func newFormReader(r *http.Request) *formReader {
	_ = r.ParseForm()
	return &formReader{r: r}
}

func (f *formReader) fail(key, msg string) {
	if f.errs == nil {
		f.errs = web.FieldErrors{}
	}
	f.errs[key] = msg
}

func (f *formReader) str(key string) string {
	return strings.TrimSpace(f.r.PostForm.Get(key))
}

// list returns the non-empty values of a multi-select.
func (f *formReader) list(key string) []string {
	var out []string
	for _, v := range f.r.PostForm[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (f *formReader) number(key string) float64 {
	v := f.str(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		f.fail(key, "Enter a number.")
	}
	return n
}

func (f *formReader) integer(key string) int {
	v := f.str(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f.fail(key, "Enter a whole number.")
	}
	return n
}

// checked reads a checkbox.
func (f *formReader) checked(key string) bool {
	switch f.str(key) {
	case "on", "true", "1":
		return true
	}
	return false
}

func (f *formReader) when(key string) time.Time {
	v := f.str(key)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{datetimeLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t
		}
	}
	f.fail(key, "Use the format YYYY-MM-DD HH:MM.")
	return time.Time{}
}
