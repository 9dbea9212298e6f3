package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/money"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

type authVM struct {
	From string
}

func (s *Server) authPage(w http.ResponseWriter, r *http.Request, status int, page, title string, form any, errs web.FieldErrors) {
	p := s.Page(r, title, authVM{From: web.SafeFrom(r.FormValue("from"), "")})
	p.Form = form
	p.Errors = errs
	s.Render(w, r, status, page, p)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if s.Visitor(r).LoggedIn() {
		http.Redirect(w, r, web.SafeFrom(r.FormValue("from"), "/"), http.StatusSeeOther)
		return
	}
	s.authPage(w, r, http.StatusOK, "login", "Sign in", api.Credentials{}, nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	in := api.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if errs := web.Validate(in); errs != nil {
		s.authPage(w, r, http.StatusUnprocessableEntity, "login", "Sign in", in, errs)
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	res, err := s.api.Login(ctx, in)
	if err != nil {
		msg := api.Message(err)
		if errors.Is(err, api.ErrUnauthorized) {
			msg = "Invalid email or password."
		}
		in.Password = ""
		s.authPage(w, r, http.StatusUnauthorized, "login", "Sign in", in, web.FieldErrors{"_form": msg})
		return
	}
	s.signIn(w, r, res, "Welcome back, "+res.User.Name+"!")
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.authPage(w, r, http.StatusOK, "register", "Create account", api.Registration{}, nil)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	in := api.Registration{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm"),
	}
	if errs := web.Validate(in); errs != nil {
		in.Password, in.Confirm = "", ""
		s.authPage(w, r, http.StatusUnprocessableEntity, "register", "Create account", in, errs)
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	res, err := s.api.Register(ctx, in)
	if err != nil {
		in.Password, in.Confirm = "", ""
		s.authPage(w, r, http.StatusBadRequest, "register", "Create account", in, web.FieldErrors{"_form": api.Message(err)})
		return
	}
	s.signIn(w, r, res, "Welcome to the bookstore, "+res.User.Name+"!")
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, res *api.AuthResult, greeting string) {
	session.SignIn(s.Session(r), res.Token, session.User{
		ID:    res.User.ID,
		Name:  res.User.Name,
		Email: res.User.Email,
		Role:  res.User.Role,
	})
	s.Redirect(w, r, web.SafeFrom(r.FormValue("from"), "/"), session.Success, greeting)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session.SignOut(s.Session(r))
	s.Redirect(w, r, "/", session.Success, "You have been signed out.")
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.FormValue("currency"))
	to := back(r, "/")
	if !money.Valid(code) {
		s.Redirect(w, r, to, session.Failure, "That currency is not supported.")
		return
	}
	session.SetCurrency(s.Session(r), code)
	s.Redirect(w, r, to, "", "")
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	session.SetTheme(s.Session(r), r.FormValue("theme"))
	s.Redirect(w, r, back(r, "/"), "", "")
}

type currencyJSON struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Rate     string `json:"rate"`
	Selected bool   `json:"selected"`
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	current := s.Visitor(r).Currency
	var out []currencyJSON
	for _, c := range money.Supported() {
		out = append(out, currencyJSON{
			Code:     c.Code,
			Symbol:   c.Symbol,
			Name:     c.Name,
			Rate:     c.Rate.String(),
			Selected: c.Code == current,
		})
	}
	web.JSON(w, http.StatusOK, out)
}
