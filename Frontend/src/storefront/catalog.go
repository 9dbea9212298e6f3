package main

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

type homeVM struct {
	Slides   []api.HeroSlide
	Sections []api.HomeSection
	Deals    []api.Deal
	Genres   []api.Genre
}

// handleHome loads the four homepage widgets concurrently. Only the
// sections are required; the others degrade to empty.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	var vm homeVM
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sections, err := s.api.ListHomeSections(gctx)
		if err != nil {
			return err
		}
		vm.Sections = activeSections(sections)
		return nil
	})
	g.Go(func() error {
		slides, err := s.api.ListHeroSlides(gctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("hero slides unavailable")
			return nil
		}
		vm.Slides = activeSlides(slides)
		return nil
	})
	g.Go(func() error {
		deals, err := s.api.ListActiveDeals(gctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("deals unavailable")
			return nil
		}
		vm.Deals = s.liveDeals(deals)
		return nil
	})
	g.Go(func() error {
		genres, err := s.api.ListGenres(gctx)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("genres unavailable")
			return nil
		}
		vm.Genres = genres
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("homepage sections")
		p := s.Page(r, "Unavailable", nil)
		s.Render(w, r, http.StatusBadGateway, "error", p)
		return
	}
	s.Render(w, r, http.StatusOK, "home", s.Page(r, "Home", vm))
}

func activeSections(in []api.HomeSection) []api.HomeSection {
	out := slices.DeleteFunc(slices.Clone(in), func(h api.HomeSection) bool { return !h.Active })
	slices.SortStableFunc(out, func(a, b api.HomeSection) int { return a.Order - b.Order })
	return out
}

func activeSlides(in []api.HeroSlide) []api.HeroSlide {
	out := slices.DeleteFunc(slices.Clone(in), func(h api.HeroSlide) bool { return !h.Active })
	slices.SortStableFunc(out, func(a, b api.HeroSlide) int { return a.Order - b.Order })
	return out
}

// liveDeals drops deals the API still lists but whose window has closed.
func (s *Server) liveDeals(in []api.Deal) []api.Deal {
	now := s.clock()
	return slices.DeleteFunc(slices.Clone(in), func(d api.Deal) bool { return !d.ActiveAt(now) })
}

// dealFor finds a live deal covering the book through its id or one of
// its genres, for books the API returned without one attached.
func (s *Server) dealFor(ctx context.Context, b *api.Book) *api.Deal {
	deals, err := s.api.ListActiveDeals(ctx)
	if err != nil {
		return nil
	}
	genres := b.GenreIDs()
	for _, d := range s.liveDeals(deals) {
		if d.AppliesTo(b.ID, genres) {
			return &d
		}
	}
	return nil
}

type booksVM struct {
	Result  *api.BookPage
	Query   api.BookQuery
	Genres  []api.Genre
	Authors []api.Author
}

var sorts = []string{"newest", "price_asc", "price_desc", "rating", "title"}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	q := r.URL.Query()
	query := api.BookQuery{
		Search:   strings.TrimSpace(q.Get("search")),
		Genre:    q.Get("genre"),
		Author:   q.Get("author"),
		Sort:     q.Get("sort"),
		Page:     max(atoi(q.Get("page"), 1), 1),
		Limit:    12,
		MinPrice: atof(q.Get("minPrice")),
		MaxPrice: atof(q.Get("maxPrice")),
	}
	if !slices.Contains(sorts, query.Sort) {
		query.Sort = ""
	}

	vm := booksVM{Query: query}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		vm.Result, err = s.api.ListBooks(gctx, query)
		return err
	})
	g.Go(func() error {
		genres, err := s.api.ListGenres(gctx)
		if err == nil {
			vm.Genres = genres
		}
		return nil
	})
	g.Go(func() error {
		authors, err := s.api.ListAuthors(gctx)
		if err == nil {
			vm.Authors = authors
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("list books")
		s.Render(w, r, http.StatusBadGateway, "error", s.Page(r, "Unavailable", nil))
		return
	}

	title := "Books"
	if query.Search != "" {
		title = "Search: " + query.Search
	}
	s.Render(w, r, http.StatusOK, "books", s.Page(r, title, vm))
}

type bookVM struct {
	Book    *api.Book
	Reviews []api.Review
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	id := r.PathValue("id")

	book, err := s.api.GetBook(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		s.NotFound(w, r)
		return
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("book", id).Msg("get book")
		s.Render(w, r, http.StatusBadGateway, "error", s.Page(r, "Unavailable", nil))
		return
	}
	if book.Deal == nil {
		book.Deal = s.dealFor(ctx, book)
	}
	reviews, err := s.api.ListReviews(ctx, id)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("book", id).Msg("reviews unavailable")
	}
	s.Render(w, r, http.StatusOK, "book", s.Page(r, book.Title, bookVM{Book: book, Reviews: reviews}))
}

func (s *Server) handleAddReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	to := "/books/" + id + "#reviews"
	in := api.ReviewInput{
		Rating:  atoi(r.FormValue("rating"), 0),
		Comment: strings.TrimSpace(r.FormValue("comment")),
	}
	if errs := web.Validate(in); errs != nil {
		msg := "Please add a rating and a comment."
		if errs.Has("rating") && !errs.Has("comment") {
			msg = "Pick a rating from 1 to 5 stars."
		}
		s.Redirect(w, r, to, session.Failure, msg)
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	if _, err := s.api.AddReview(ctx, s.Visitor(r).Token, id, in); err != nil {
		s.Fail(w, r, err, to)
		return
	}
	s.Redirect(w, r, to, session.Success, "Thanks for your review!")
}

func (s *Server) handleAuthor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	author, err := s.api.GetAuthor(ctx, r.PathValue("id"))
	if errors.Is(err, api.ErrNotFound) {
		s.NotFound(w, r)
		return
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("get author")
		s.Render(w, r, http.StatusBadGateway, "error", s.Page(r, "Unavailable", nil))
		return
	}
	s.Render(w, r, http.StatusOK, "author", s.Page(r, author.Name, author))
}

func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	deals, err := s.api.ListActiveDeals(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("list deals")
		s.Render(w, r, http.StatusBadGateway, "error", s.Page(r, "Unavailable", nil))
		return
	}
	s.Render(w, r, http.StatusOK, "deals", s.Page(r, "Deals", s.liveDeals(deals)))
}
