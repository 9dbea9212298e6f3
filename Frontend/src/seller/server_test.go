package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/config"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/pricing"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type published struct {
	mu  sync.Mutex
	got []string
	err error
}

func (p *published) Publish(_ context.Context, entity, action, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, entity+"."+action+":"+id)
	return p.err
}

func (p *published) events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.got...)
}

// sellerAPI answers the /seller endpoints for the token "seller-tok".
type sellerAPI struct {
	mu      sync.Mutex
	calls   []string
	body    map[string]any
	query   url.Values
	reject  bool
	badBook bool
}

func (f *sellerAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *sellerAPI) lastBody() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body
}

func (f *sellerAPI) set(fn func(f *sellerAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *sellerAPI) handler() http.Handler {
	herbert := api.Author{ID: "a1", Name: "Frank Herbert", Bio: "Wrote Dune."}
	scifi := api.Genre{ID: "g1", Name: "Science Fiction"}
	pubDate := time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC)
	dune := api.Book{ID: "b1", Title: "Dune", Author: &herbert, Genres: []api.Genre{scifi}, Price: 10, Stock: 3, PublishedDate: &pubDate}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&in)
		switch in.Email {
		case "seller@example.com":
			writeJSON(w, http.StatusOK, api.AuthResult{Token: "seller-tok", User: api.User{ID: "u1", Name: "Sam", Role: "seller"}})
		case "reader@example.com":
			writeJSON(w, http.StatusOK, api.AuthResult{Token: "reader-tok", User: api.User{ID: "u2", Name: "Rae", Role: "customer"}})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		}
	})
	mux.HandleFunc("GET /seller/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.SellerStats{Books: 1240, Authors: 310, Genres: 18, ActiveDeals: 2, LowStock: 4})
	})
	mux.HandleFunc("GET /seller/books", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.BookPage{Books: []api.Book{dune}, Total: 1, Page: 1, Pages: 1})
	})
	mux.HandleFunc("GET /seller/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "b1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
			return
		}
		writeJSON(w, http.StatusOK, dune)
	})
	mux.HandleFunc("POST /seller/books", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		bad := f.badBook
		f.mu.Unlock()
		if bad {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "ISBN already exists"})
			return
		}
		writeJSON(w, http.StatusCreated, api.Book{ID: "b2", Title: "Children of Dune"})
	})
	mux.HandleFunc("PUT /seller/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dune)
	})
	mux.HandleFunc("DELETE /seller/books/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /seller/authors", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []api.Author{herbert})
	})
	mux.HandleFunc("GET /seller/genres", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []api.Genre{scifi})
	})
	mux.HandleFunc("GET /seller/deals", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []api.Deal{
			{ID: "d1", Name: "Spring Sale", Type: pricing.Seasonal, DiscountType: pricing.Percentage, DiscountValue: 15,
				IsActive: true, StartDate: fixedNow.Add(-time.Hour), EndDate: fixedNow.Add(3 * time.Hour)},
			{ID: "d2", Name: "Old promo", Type: pricing.BOGO, IsActive: false},
		})
	})
	mux.HandleFunc("POST /seller/deals", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, api.Deal{ID: "d3"})
	})
	mux.HandleFunc("POST /seller/homepage-sections", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, api.HomeSection{ID: "s9"})
	})
	mux.HandleFunc("DELETE /seller/hero-slides/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			f.mu.Lock()
			reject := f.reject
			f.mu.Unlock()
			if reject || r.Header.Get("Authorization") != "Bearer seller-tok" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
				return
			}
		}
		f.mu.Lock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		f.query = r.URL.Query()
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			b, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(b)))
			f.body = nil
			_ = json.Unmarshal(b, &f.body)
		}
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

type portal struct {
	t      *testing.T
	base   string
	client *http.Client
	api    *sellerAPI
	events *published
	store  sessions.Store
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	fake := &sellerAPI{}
	backend := httptest.NewServer(fake.handler())
	t.Cleanup(backend.Close)

	pub := &published{}
	cfg := &config.Config{APITimeout: 2 * time.Second, BaseCurrency: "USD"}
	client := api.New(api.Options{BaseURL: backend.URL, Timeout: 2 * time.Second})
	store := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	templates, static, err := subtrees(assets)
	require.NoError(t, err)
	srv, err := NewServer(cfg, client, store, pub, templates, static)
	require.NoError(t, err)
	srv.Now = func() time.Time { return fixedNow }

	front := httptest.NewServer(srv.Handler())
	t.Cleanup(front.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &portal{
		t:      t,
		base:   front.URL,
		api:    fake,
		events: pub,
		store:  store,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (p *portal) do(method, path string, form url.Values) (int, string, http.Header) {
	p.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, p.base+path, body)
	require.NoError(p.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := p.client.Do(req)
	require.NoError(p.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(p.t, err)
	return resp.StatusCode, string(b), resp.Header
}

func (p *portal) get(path string) (int, string, http.Header) {
	return p.do(http.MethodGet, path, nil)
}

func (p *portal) post(path string, form url.Values) (int, string, http.Header) {
	if form == nil {
		form = url.Values{}
	}
	return p.do(http.MethodPost, path, form)
}

func (p *portal) login(email string) (int, string, http.Header) {
	return p.post("/seller/login", url.Values{"email": {email}, "password": {"pw"}})
}

func (p *portal) signIn() {
	p.t.Helper()
	status, _, hdr := p.login("seller@example.com")
	require.Equal(p.t, http.StatusSeeOther, status)
	require.Equal(p.t, "/seller/", hdr.Get("Location"))
}

// visitor reads the session the portal's cookie jar carries.
func (p *portal) visitor() session.Visitor {
	p.t.Helper()
	r := httptest.NewRequest(http.MethodGet, p.base+"/seller/", nil)
	u, err := url.Parse(p.base)
	require.NoError(p.t, err)
	for _, c := range p.client.Jar.Cookies(u) {
		r.AddCookie(c)
	}
	sess, err := p.store.Get(r, session.CookieName)
	require.NoError(p.t, err)
	return session.Load(sess)
}

// shopperSession stores a storefront sign-in in the shared session.
func (p *portal) shopperSession(token string, user session.User) {
	p.t.Helper()
	r := httptest.NewRequest(http.MethodGet, p.base+"/", nil)
	w := httptest.NewRecorder()
	sess, err := p.store.New(r, session.CookieName)
	require.NoError(p.t, err)
	session.SignIn(sess, token, user)
	require.NoError(p.t, sess.Save(r, w))
	u, err := url.Parse(p.base)
	require.NoError(p.t, err)
	p.client.Jar.SetCookies(u, w.Result().Cookies())
}

func TestRefusedSellerLoginKeepsShopperSession(t *testing.T) {
	p := newPortal(t)
	p.shopperSession("reader-tok", session.User{ID: "u2", Name: "Rae", Role: "customer"})

	status, body, _ := p.login("reader@example.com")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, "This account cannot use the seller portal.")

	v := p.visitor()
	assert.True(t, v.LoggedIn())
	assert.Equal(t, "reader-tok", v.Token)
	assert.Equal(t, "Rae", v.UserName)
}

func TestGuestIsSentToSellerLogin(t *testing.T) {
	p := newPortal(t)
	status, _, hdr := p.get("/seller/books")
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/seller/login?from="+url.QueryEscape("/seller/books"), hdr.Get("Location"))

	status, _, hdr = p.get("/")
	assert.Equal(t, http.StatusFound, status)
	assert.Equal(t, "/seller/", hdr.Get("Location"))
}

func TestCustomerCannotSignIn(t *testing.T) {
	p := newPortal(t)
	status, body, _ := p.login("reader@example.com")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Contains(t, body, "This account cannot use the seller portal.")

	status, _, _ = p.get("/seller/")
	assert.Equal(t, http.StatusSeeOther, status)

	status, body, _ = p.login("nobody@example.com")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "Invalid email or password.")
}

func TestDashboard(t *testing.T) {
	p := newPortal(t)
	p.signIn()

	status, body, _ := p.get("/seller/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Signed in as Sam.")
	assert.Contains(t, body, "Welcome, Sam")
	assert.Contains(t, body, "<strong>1,240</strong> books")
	assert.Contains(t, body, "<strong>4</strong> books low on stock")

	_, _, hdr := p.get("/seller/login")
	assert.Equal(t, "/seller/", hdr.Get("Location"))
}

func TestBookList(t *testing.T) {
	p := newPortal(t)
	p.signIn()

	status, body, _ := p.get("/seller/books?search=dune&page=2")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "Frank Herbert")
	assert.Contains(t, body, "$10.00")
	assert.Contains(t, body, `class="warn">3`)

	p.api.mu.Lock()
	q := p.api.query
	p.api.mu.Unlock()
	assert.Equal(t, "dune", q.Get("search"))
	assert.Equal(t, "2", q.Get("page"))
}

func TestCreateBookValidation(t *testing.T) {
	p := newPortal(t)
	p.signIn()

	status, body, _ := p.post("/seller/books", url.Values{"price": {"ten"}, "stock": {"2"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Enter a number.")
	assert.Contains(t, body, "Pick at least 1.")
	assert.Contains(t, body, `<option value="a1">Frank Herbert</option>`)
	assert.False(t, p.api.called("POST /seller/books"))
	assert.Empty(t, p.events.events())
}

func TestCreateBook(t *testing.T) {
	p := newPortal(t)
	p.signIn()

	status, _, hdr := p.post("/seller/books", url.Values{
		"title":         {"Children of Dune"},
		"author":        {"a1"},
		"genres":        {"g1", ""},
		"price":         {"12.5"},
		"stock":         {"4"},
		"publishedDate": {"1976-04-01"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/seller/books", hdr.Get("Location"))
	assert.Equal(t, []string{"book.created:b2"}, p.events.events())

	body := p.api.lastBody()
	assert.Equal(t, "Children of Dune", body["title"])
	assert.Equal(t, "a1", body["author"])
	assert.Equal(t, []any{"g1"}, body["genres"])
	assert.InDelta(t, 12.5, body["price"], 0.001)

	_, page, _ := p.get("/seller/books")
	assert.Contains(t, page, "Book created.")
}

func TestCreateBookAPIError(t *testing.T) {
	p := newPortal(t)
	p.signIn()
	p.api.set(func(f *sellerAPI) { f.badBook = true })

	status, body, _ := p.post("/seller/books", url.Values{
		"title": {"Dune"}, "author": {"a1"}, "genres": {"g1"}, "price": {"10"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "ISBN already exists")
	assert.Contains(t, body, `value="Dune"`)
	assert.Empty(t, p.events.events())
}

func TestEditUpdateDeleteBook(t *testing.T) {
	p := newPortal(t)
	p.signIn()

	status, body, _ := p.get("/seller/books/b1/edit")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `value="Dune"`)
	assert.Contains(t, body, `<option value="a1" selected>Frank Herbert</option>`)
	assert.Contains(t, body, `<option value="g1" selected>Science Fiction</option>`)
	assert.Contains(t, body, `value="1965-08-01"`)
	assert.Contains(t, body, `action="/seller/books/b1"`)

	status, _, _ = p.get("/seller/books/nope/edit")
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = p.post("/seller/books/b1", url.Values{
		"title": {"Dune"}, "author": {"a1"}, "genres": {"g1"}, "price": {"11"},
	})
	assert.Equal(t, http.StatusSeeOther, status)
	assert.True(t, p.api.called("PUT /seller/books/b1"))

	status, _, _ = p.post("/seller/books/b1/delete", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.True(t, p.api.called("DELETE /seller/books/b1"))

	assert.Equal(t, []string{"book.updated:b1", "book.deleted:b1"}, p.events.events())
}

func TestDeals(t *testing.T) {
	p := newPortal(t)
	p.signIn()

	_, body, _ := p.get("/seller/deals")
	assert.Contains(t, body, "Spring Sale")
	assert.Contains(t, body, "15%")
	assert.Contains(t, body, "Live")
	assert.Contains(t, body, "3 hours left")
	assert.Contains(t, body, "Paused")

	_, body, _ = p.get("/seller/deals/new")
	assert.Contains(t, body, `<option value="flash_sale" selected>`)
	assert.Contains(t, body, `<option value="b1">Dune</option>`)

	status, body, _ := p.post("/seller/deals", url.Values{
		"name": {"Summer"}, "dealType": {"flash_sale"}, "discountType": {"percentage"},
		"discountValue": {"120"}, "startDate": {"2025-06-10T00:00"}, "endDate": {"2025-06-01T00:00"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Must be at most 100.")
	assert.Contains(t, body, "Must be after the start.")
	assert.Contains(t, body, "Pick at least one book or genre.")
	assert.Contains(t, body, `value="2025-06-10T00:00"`)

	status, _, _ = p.post("/seller/deals", url.Values{
		"name": {"Two for one"}, "dealType": {"bogo"}, "discountValue": {"50"},
		"startDate": {"2025-06-01T00:00"}, "endDate": {"2025-06-30T23:59"},
		"applicableGenres": {"g1"}, "isActive": {"on"},
	})
	require.Equal(t, http.StatusSeeOther, status)
	sent := p.api.lastBody()
	assert.Equal(t, "bogo", sent["dealType"])
	assert.Equal(t, float64(0), sent["discountValue"])
	assert.Equal(t, "2025-06-01T00:00:00Z", sent["startDate"])
	assert.Equal(t, true, sent["isActive"])
	assert.Equal(t, []string{"deal.created:d3"}, p.events.events())
}

func TestGenreSectionNeedsGenre(t *testing.T) {
	p := newPortal(t)
	p.signIn()

	status, body, _ := p.post("/seller/sections", url.Values{"title": {"Sci-fi picks"}, "type": {"genre"}})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "Choose the genre this section shows.")

	status, _, _ = p.post("/seller/sections", url.Values{"title": {"Sci-fi picks"}, "type": {"genre"}, "genre": {"g1"}, "order": {"2"}})
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "g1", p.api.lastBody()["genre"])
	assert.Equal(t, []string{"section.created:s9"}, p.events.events())
}

func TestPublishFailureKeepsChange(t *testing.T) {
	p := newPortal(t)
	p.signIn()
	p.events.mu.Lock()
	p.events.err = errors.New("broker down")
	p.events.mu.Unlock()

	status, _, hdr := p.post("/seller/slides/h1/delete", nil)
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/seller/slides", hdr.Get("Location"))
	assert.Equal(t, []string{"slide.deleted:h1"}, p.events.events())
}

func TestRejectedTokenSignsOut(t *testing.T) {
	p := newPortal(t)
	p.signIn()
	p.api.set(func(f *sellerAPI) { f.reject = true })

	status, _, hdr := p.get("/seller/authors")
	require.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/seller/login?from="+url.QueryEscape("/seller/authors"), hdr.Get("Location"))

	_, body, _ := p.get("/seller/login")
	assert.Contains(t, body, "Your session has expired. Please sign in again.")
	assert.NotContains(t, body, "Sign out Sam")
}

func TestLogout(t *testing.T) {
	p := newPortal(t)
	p.signIn()
	status, _, hdr := p.post("/seller/logout", nil)
	assert.Equal(t, http.StatusSeeOther, status)
	assert.Equal(t, "/seller/login", hdr.Get("Location"))

	status, _, _ = p.get("/seller/")
	assert.Equal(t, http.StatusSeeOther, status)
}

func TestSellerOps(t *testing.T) {
	p := newPortal(t)
	status, _, _ := p.get("/healthz")
	assert.Equal(t, http.StatusOK, status)
	status, _, _ = p.get("/seller/static/seller.css")
	assert.Equal(t, http.StatusOK, status)
	status, body, _ := p.get("/seller/nothing/here")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "Page not found")
}
