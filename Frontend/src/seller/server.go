package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/config"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

// Publisher announces catalog changes to the storefronts.
type Publisher interface {
	Publish(ctx context.Context, entity, action, id string) error
}

type Server struct {
	*web.Site
	api     *api.Client
	events  Publisher
	static  fs.FS
	timeout time.Duration
}

func NewServer(cfg *config.Config, client *api.Client, store sessions.Store, pub Publisher, templates, static fs.FS) (*Server, error) {
	s := &Server{
		api:     client,
		events:  pub,
		static:  static,
		timeout: cfg.APITimeout,
	}
	s.Site = &web.Site{
		Store:        store,
		BaseCurrency: cfg.BaseCurrency,
		LoginPath:    "/seller/login",
	}
	funcs := web.Funcs(s.clock)
	funcs["datetimeLocal"] = datetimeLocal
	pages, err := web.NewRenderer(templates, funcs)
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

func (s *Server) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	d := s.timeout
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(r.Context(), 3*d)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /seller/static/", http.StripPrefix("/seller/static/", http.FileServerFS(s.static)))
	mux.HandleFunc("GET /healthz", web.Healthz)
	mux.Handle("GET /metrics", web.Metrics())

	mux.HandleFunc("GET /seller/login", s.handleLoginForm)
	mux.HandleFunc("POST /seller/login", s.handleLogin)
	mux.HandleFunc("POST /seller/logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/seller/", http.StatusFound)
	})
	mux.HandleFunc("GET /seller", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/seller/", http.StatusFound)
	})
	mux.HandleFunc("GET /seller/{$}", s.RequireSeller(s.handleDashboard))

	s.books().mount(mux, s)
	s.authors().mount(mux, s)
	s.genres().mount(mux, s)
	s.deals().mount(mux, s)
	s.sections().mount(mux, s)
	s.slides().mount(mux, s)

	mux.HandleFunc("/", s.NotFound)

	return web.Chain(mux, web.WithRequestID, web.WithLog, web.Recover)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	stats, err := s.api.SellerStats(ctx, s.Visitor(r).Token)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			s.Fail(w, r, err, "/seller/")
			return
		}
		log.Ctx(ctx).Warn().Err(err).Msg("seller stats unavailable")
	}
	s.Render(w, r, http.StatusOK, "dashboard", s.Page(r, "Dashboard", stats))
}

type loginVM struct {
	From string
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request, status int, in api.Credentials, errs web.FieldErrors) {
	p := s.Page(r, "Seller sign in", loginVM{From: web.SafeFrom(r.FormValue("from"), "")})
	p.Form = in
	p.Errors = errs
	s.Render(w, r, status, "login", p)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if v := s.Visitor(r); v.LoggedIn() && v.IsSeller() && !session.TokenExpired(v.Token, s.clock()) {
		http.Redirect(w, r, web.SafeFrom(r.FormValue("from"), "/seller/"), http.StatusSeeOther)
		return
	}
	s.loginPage(w, r, http.StatusOK, api.Credentials{}, nil)
}

// handleLogin only keeps the session for seller and admin accounts.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	in := api.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if errs := web.Validate(in); errs != nil {
		s.loginPage(w, r, http.StatusUnprocessableEntity, in, errs)
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	res, err := s.api.Login(ctx, in)
	in.Password = ""
	if err != nil {
		msg := api.Message(err)
		if errors.Is(err, api.ErrUnauthorized) {
			msg = "Invalid email or password."
		}
		s.loginPage(w, r, http.StatusUnauthorized, in, web.FieldErrors{"_form": msg})
		return
	}

	role := res.User.Role
	if role == "" {
		role = session.TokenRole(res.Token)
	}
	// The session is shared with the storefront, so a refused account must
	// not touch it.
	if !(session.Visitor{Role: role}).IsSeller() {
		s.loginPage(w, r, http.StatusForbidden, in, web.FieldErrors{"_form": "This account cannot use the seller portal."})
		return
	}
	session.SignIn(s.Session(r), res.Token, session.User{
		ID:    res.User.ID,
		Name:  res.User.Name,
		Email: res.User.Email,
		Role:  role,
	})
	log.Ctx(ctx).Info().Str("user", res.User.ID).Msg("seller signed in")
	s.Redirect(w, r, web.SafeFrom(r.FormValue("from"), "/seller/"), session.Success, "Signed in as "+res.User.Name+".")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.SignOut(s.Session(r))
	s.Redirect(w, r, "/seller/login", session.Success, "You have been signed out.")
}

// announce publishes a catalog event. The API change has already been
// made, so a broker failure is logged and not shown to the seller.
func (s *Server) announce(ctx context.Context, entity, action, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, entity, action, id); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("entity", entity).Str("action", action).Str("id", id).Msg("publish catalog event")
	}
}

func atoi(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
