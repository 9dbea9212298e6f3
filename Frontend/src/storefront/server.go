package main

import (
	"context"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/sessions"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/config"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

type Server struct {
	*web.Site
	api     *api.Client
	static  fs.FS
	timeout time.Duration
	cors    []string
}

func NewServer(cfg *config.Config, client *api.Client, store sessions.Store, templates, static fs.FS) (*Server, error) {
	s := &Server{
		api:     client,
		static:  static,
		timeout: cfg.APITimeout,
		cors:    cfg.CORSOrigins,
	}
	s.Site = &web.Site{
		Store:        store,
		BaseCurrency: cfg.BaseCurrency,
		LoginPath:    "/login",
	}
	pages, err := web.NewRenderer(templates, web.Funcs(s.clock))
	if err != nil {
		return nil, err
	}
	s.Pages = pages
	return s, nil
}

func (s *Server) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ctx bounds a handler's API calls. A few calls run per page so the
// budget is a multiple of the per-call timeout.
func (s *Server) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	d := s.timeout
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), 3*d)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.static)))
	mux.HandleFunc("GET /healthz", web.Healthz)
	mux.Handle("GET /metrics", web.Metrics())

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /books", s.handleBooks)
	mux.HandleFunc("GET /books/{id}", s.handleBook)
	mux.HandleFunc("POST /books/{id}/reviews", s.RequireLogin(s.handleAddReview))
	mux.HandleFunc("GET /authors/{id}", s.handleAuthor)
	mux.HandleFunc("GET /deals", s.handleDeals)

	mux.HandleFunc("GET /cart", s.RequireLogin(s.handleCart))
	mux.HandleFunc("POST /cart/add", s.RequireLogin(s.handleCartAdd))
	mux.HandleFunc("POST /cart/update", s.RequireLogin(s.handleCartUpdate))
	mux.HandleFunc("POST /cart/remove", s.RequireLogin(s.handleCartRemove))
	mux.HandleFunc("POST /cart/clear", s.RequireLogin(s.handleCartClear))

	mux.HandleFunc("GET /wishlist", s.RequireLogin(s.handleWishlist))
	mux.HandleFunc("POST /wishlist/add", s.RequireLogin(s.handleWishlistAdd))
	mux.HandleFunc("POST /wishlist/remove", s.RequireLogin(s.handleWishlistRemove))
	mux.HandleFunc("POST /wishlist/move-to-cart", s.RequireLogin(s.handleWishlistMove))

	mux.HandleFunc("GET /checkout", s.RequireLogin(s.handleCheckoutForm))
	mux.HandleFunc("POST /checkout", s.RequireLogin(s.handleCheckout))
	mux.HandleFunc("GET /orders", s.RequireLogin(s.handleOrders))

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("POST /preferences/currency", s.handleCurrency)
	mux.HandleFunc("POST /preferences/theme", s.handleTheme)

	cors := web.CORS(s.cors)
	mux.Handle("GET /api/cart/summary", cors(http.HandlerFunc(s.handleCartSummary)))
	mux.Handle("GET /api/currencies", cors(http.HandlerFunc(s.handleCurrencies)))

	mux.HandleFunc("/", s.NotFound)

	return web.Chain(mux, web.WithRequestID, web.WithLog, web.Recover)
}

// back is the redirect target after a form post: an explicit local
// "next" field, then the local Referer, then def.
func back(r *http.Request, def string) string {
	if next := web.SafeFrom(r.FormValue("next"), ""); next != "" {
		return next
	}
	if u := r.Referer(); u != "" {
		if ref, err := r.URL.Parse(u); err == nil && ref.Host == r.Host {
			return ref.RequestURI()
		}
	}
	return def
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
