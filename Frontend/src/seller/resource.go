package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/events"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

// resource holds the API calls and form plumbing behind the list, new,
// edit and delete pages of one catalog entity. T is what the API returns,
// In what it accepts.
type resource[T, In any] struct {
	path   string // segment under /seller/
	page   string // list template; the form is page+"_form"
	entity string
	noun   string
	plural string
	needs  choice

	list   func(ctx context.Context, token string, r *http.Request) (any, error)
	get    func(ctx context.Context, token, id string) (*T, error)
	create func(ctx context.Context, token string, in In) (*T, error)
	update func(ctx context.Context, token, id string, in In) (*T, error)
	remove func(ctx context.Context, token, id string) error

	id    func(*T) string
	input func(*T) In
	parse func(f *formReader) In
	blank In
}

func (res *resource[T, In]) base() string { return "/seller/" + res.path }

func (res *resource[T, In]) mount(mux *http.ServeMux, s *Server) {
	base := res.base()
	mux.HandleFunc("GET "+base, s.RequireSeller(res.handleList(s)))
	mux.HandleFunc("GET "+base+"/new", s.RequireSeller(res.handleNew(s)))
	mux.HandleFunc("POST "+base, s.RequireSeller(res.handleCreate(s)))
	mux.HandleFunc("GET "+base+"/{id}/edit", s.RequireSeller(res.handleEdit(s)))
	mux.HandleFunc("POST "+base+"/{id}", s.RequireSeller(res.handleUpdate(s)))
	mux.HandleFunc("POST "+base+"/{id}/delete", s.RequireSeller(res.handleDelete(s)))
}

func (res *resource[T, In]) handleList(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := s.ctx(r)
		defer cancel()
		data, err := res.list(ctx, s.Visitor(r).Token, r)
		if err != nil {
			s.Fail(w, r, err, "/seller/")
			return
		}
		s.Render(w, r, http.StatusOK, res.page, s.Page(r, res.plural, data))
	}
}

func (res *resource[T, In]) handleNew(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res.renderForm(s, w, r, http.StatusOK, "", res.blank, nil)
	}
}

func (res *resource[T, In]) handleEdit(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		ctx, cancel := s.ctx(r)
		defer cancel()
		item, err := res.get(ctx, s.Visitor(r).Token, id)
		if errors.Is(err, api.ErrNotFound) {
			s.NotFound(w, r)
			return
		}
		if err != nil {
			s.Fail(w, r, err, res.base())
			return
		}
		res.renderForm(s, w, r, http.StatusOK, id, res.input(item), nil)
	}
}

func (res *resource[T, In]) handleCreate(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, errs := res.read(r)
		if errs != nil {
			res.renderForm(s, w, r, http.StatusUnprocessableEntity, "", in, errs)
			return
		}
		ctx, cancel := s.ctx(r)
		defer cancel()
		item, err := res.create(ctx, s.Visitor(r).Token, in)
		if err != nil {
			res.apiFailed(s, w, r, "", in, err)
			return
		}
		s.announce(ctx, res.entity, events.Created, res.id(item))
		s.Redirect(w, r, res.base(), session.Success, res.noun+" created.")
	}
}

func (res *resource[T, In]) handleUpdate(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		in, errs := res.read(r)
		if errs != nil {
			res.renderForm(s, w, r, http.StatusUnprocessableEntity, id, in, errs)
			return
		}
		ctx, cancel := s.ctx(r)
		defer cancel()
		if _, err := res.update(ctx, s.Visitor(r).Token, id, in); err != nil {
			res.apiFailed(s, w, r, id, in, err)
			return
		}
		s.announce(ctx, res.entity, events.Updated, id)
		s.Redirect(w, r, res.base(), session.Success, res.noun+" updated.")
	}
}

func (res *resource[T, In]) handleDelete(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		ctx, cancel := s.ctx(r)
		defer cancel()
		if err := res.remove(ctx, s.Visitor(r).Token, id); err != nil {
			s.Fail(w, r, err, res.base())
			return
		}
		s.announce(ctx, res.entity, events.Deleted, id)
		s.Redirect(w, r, res.base(), session.Success, res.noun+" deleted.")
	}
}

// read parses the posted form and runs the struct validation on top of
// the parse errors.
func (res *resource[T, In]) read(r *http.Request) (In, web.FieldErrors) {
	f := newFormReader(r)
	in := res.parse(f)
	errs := f.errs
	for k, v := range web.Validate(in) {
		if errs == nil {
			errs = web.FieldErrors{}
		}
		if !errs.Has(k) {
			errs[k] = v
		}
	}
	return in, errs
}

// apiFailed re-renders the form with the API's message. A rejected token
// still ends the session.
func (res *resource[T, In]) apiFailed(s *Server, w http.ResponseWriter, r *http.Request, id string, in In, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		s.Fail(w, r, err, res.base())
		return
	}
	res.renderForm(s, w, r, apiStatus(err), id, in, web.FieldErrors{"_form": api.Message(err)})
}

type formVM struct {
	Action  string
	ID      string
	Base    string
	Choices choices
}

func (res *resource[T, In]) renderForm(s *Server, w http.ResponseWriter, r *http.Request, status int, id string, in In, errs web.FieldErrors) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	ch, err := s.loadChoices(ctx, s.Visitor(r).Token, res.needs)
	if err != nil {
		s.Fail(w, r, err, res.base())
		return
	}
	title, action := "New "+lower(res.noun), res.base()
	if id != "" {
		title, action = "Edit "+lower(res.noun), res.base()+"/"+url.PathEscape(id)
	}
	p := s.Page(r, title, formVM{Action: action, ID: id, Base: res.base(), Choices: ch})
	p.Form = in
	p.Errors = errs
	s.Render(w, r, status, res.page+"_form", p)
}

// apiStatus passes 4xx answers through and maps everything else to 502.
func apiStatus(err error) int {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

type choice uint8

const (
	needAuthors choice = 1 << iota
	needGenres
	needBooks
)

// choices feeds the select boxes of a form.
type choices struct {
	Authors []api.Author
	Genres  []api.Genre
	Books   []api.Book
}

func (s *Server) loadChoices(ctx context.Context, token string, need choice) (choices, error) {
	var ch choices
	g, gctx := errgroup.WithContext(ctx)
	if need&needAuthors != 0 {
		g.Go(func() (err error) {
			ch.Authors, err = s.api.SellerAuthors(gctx, token)
			return err
		})
	}
	if need&needGenres != 0 {
		g.Go(func() (err error) {
			ch.Genres, err = s.api.SellerGenres(gctx, token)
			return err
		})
	}
	if need&needBooks != 0 {
		g.Go(func() error {
			page, err := s.api.SellerBooks(gctx, token, 0, "")
			if err != nil {
				return err
			}
			ch.Books = page.Books
			return nil
		})
	}
	return ch, g.Wait()
}
