package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/money"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
)

// Page is the root value handed to every template.
type Page struct {
	Title      string
	Visitor    session.Visitor
	Toasts     []session.Toast
	Currencies []money.Currency
	URL        *url.URL
	RequestID  string
	Errors     FieldErrors
	Form       any
	Data       any
}

// Site bundles the per-binary pieces handlers need around a request.
type Site struct {
	Store        sessions.Store
	Pages        *Renderer
	BaseCurrency string
	// LoginPath is where guards send anonymous visitors.
	LoginPath string
	Now       func() time.Time
}

func (s *Site) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Session never fails: an unreadable session is replaced by a fresh one.
func (s *Site) Session(r *http.Request) *sessions.Session {
	sess, err := s.Store.Get(r, session.CookieName)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("session load failed")
	}
	if sess == nil {
		sess = sessions.NewSession(s.Store, session.CookieName)
	}
	return sess
}

// Visitor reads the session and fills the display currency from the
// Accept-Language header when the visitor has not picked one.
func (s *Site) Visitor(r *http.Request) session.Visitor {
	v := session.Load(s.Session(r))
	if v.Currency == "" || !money.Valid(v.Currency) {
		v.Currency = money.Negotiate(r.Header.Get("Accept-Language"))
		if v.Currency == money.Base && s.BaseCurrency != "" {
			v.Currency = s.BaseCurrency
		}
	}
	return v
}

// Save writes the session back. A fresh session nothing was written to is
// skipped, so cookieless visitors leave no row and get no cookie.
func (s *Site) Save(w http.ResponseWriter, r *http.Request) {
	sess := s.Session(r)
	if sess.IsNew && len(sess.Values) == 0 {
		return
	}
	if err := sess.Save(r, w); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("session save failed")
	}
}

// Redirect queues a toast, saves the session and answers 303.
func (s *Site) Redirect(w http.ResponseWriter, r *http.Request, to, kind, text string) {
	if text != "" {
		session.AddToast(s.Session(r), kind, text)
	}
	s.Save(w, r)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// Page builds the template root and pops pending toasts.
func (s *Site) Page(r *http.Request, title string, data any) Page {
	return Page{
		Title:      title,
		Visitor:    s.Visitor(r),
		Toasts:     session.Toasts(s.Session(r)),
		Currencies: money.Supported(),
		URL:        r.URL,
		RequestID:  RequestID(r.Context()),
		Data:       data,
	}
}

// Render saves the session when it holds state and writes the page.
func (s *Site) Render(w http.ResponseWriter, r *http.Request, status int, name string, p Page) {
	s.Save(w, r)
	s.Pages.Render(w, status, name, p)
}

func (s *Site) loginURL(r *http.Request) string {
	from := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		if ref := localReferer(r); ref != "" {
			from = ref
		}
	}
	return s.LoginPath + "?from=" + url.QueryEscape(from)
}

// localReferer is the Referer's path when it points back at this host.
func localReferer(r *http.Request) string {
	u, err := url.Parse(r.Referer())
	if err != nil || u.Host != r.Host {
		return ""
	}
	return u.RequestURI()
}

// RequireLogin sends anonymous visitors to the login page.
func (s *Site) RequireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.Visitor(r)
		if !v.LoggedIn() || session.TokenExpired(v.Token, s.now()) {
			session.SignOut(s.Session(r))
			s.Redirect(w, r, s.loginURL(r), session.Failure, "Please sign in to continue.")
			return
		}
		next(w, r)
	}
}

// RequireSeller admits signed-in sellers and admins with a live token.
func (s *Site) RequireSeller(next http.HandlerFunc) http.HandlerFunc {
	return s.RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		if !s.Visitor(r).IsSeller() {
			s.Redirect(w, r, s.loginURL(r), session.Failure, "A seller account is required for that page.")
			return
		}
		next(w, r)
	})
}

// Fail turns an API error into a toast and redirect. A rejected token
// ends the session and sends the visitor to log in again.
func (s *Site) Fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if errors.Is(err, api.ErrUnauthorized) {
		session.SignOut(s.Session(r))
		s.Redirect(w, r, s.loginURL(r), session.Failure, "Your session has expired. Please sign in again.")
		return
	}
	log.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
	s.Redirect(w, r, back, session.Failure, api.Message(err))
}

// NotFound renders the "notfound" page when the binary has one.
func (s *Site) NotFound(w http.ResponseWriter, r *http.Request) {
	if s.Pages != nil && s.Pages.Has("notfound") {
		s.Render(w, r, http.StatusNotFound, "notfound", s.Page(r, "Not found", nil))
		return
	}
	http.NotFound(w, r)
}

// SafeFrom keeps post-login redirects on this site.
func SafeFrom(from, def string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return def
	}
	return from
}
