package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/events"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/pricing"
)

func lower(s string) string { return strings.ToLower(s) }

type bookListVM struct {
	Result *api.BookPage
	Search string
}

func (s *Server) books() *resource[api.Book, api.BookInput] {
	return &resource[api.Book, api.BookInput]{
		path:   "books",
		page:   "books",
		entity: events.Book,
		noun:   "Book",
		plural: "Books",
		needs:  needAuthors | needGenres,
		list: func(ctx context.Context, token string, r *http.Request) (any, error) {
			q := r.URL.Query()
			search := strings.TrimSpace(q.Get("search"))
			page, err := s.api.SellerBooks(ctx, token, max(atoi(q.Get("page"), 1), 1), search)
			if err != nil {
				return nil, err
			}
			return bookListVM{Result: page, Search: search}, nil
		},
		get:    s.api.SellerBook,
		create: s.api.CreateBook,
		update: s.api.UpdateBook,
		remove: s.api.DeleteBook,
		id:     func(b *api.Book) string { return b.ID },
		input:  bookInput,
		parse: func(f *formReader) api.BookInput {
			return api.BookInput{
				Title:         f.str("title"),
				AuthorID:      f.str("author"),
				Genres:        f.list("genres"),
				Price:         f.number("price"),
				Description:   f.str("description"),
				CoverImage:    f.str("coverImage"),
				Stock:         f.integer("stock"),
				ISBN:          f.str("isbn"),
				PublishedDate: f.str("publishedDate"),
			}
		},
	}
}

func bookInput(b *api.Book) api.BookInput {
	in := api.BookInput{
		Title:       b.Title,
		Genres:      b.GenreIDs(),
		Price:       b.Price,
		Description: b.Description,
		CoverImage:  b.CoverImage,
		Stock:       b.Stock,
		ISBN:        b.ISBN,
	}
	if b.Author != nil {
		in.AuthorID = b.Author.ID
	}
	if b.PublishedDate != nil {
		in.PublishedDate = b.PublishedDate.Format("2006-01-02")
	}
	return in
}

func (s *Server) authors() *resource[api.Author, api.AuthorInput] {
	return &resource[api.Author, api.AuthorInput]{
		path:   "authors",
		page:   "authors",
		entity: events.Author,
		noun:   "Author",
		plural: "Authors",
		list: func(ctx context.Context, token string, _ *http.Request) (any, error) {
			return s.api.SellerAuthors(ctx, token)
		},
		get:    s.api.SellerAuthor,
		create: s.api.CreateAuthor,
		update: s.api.UpdateAuthor,
		remove: s.api.DeleteAuthor,
		id:     func(a *api.Author) string { return a.ID },
		input: func(a *api.Author) api.AuthorInput {
			return api.AuthorInput{Name: a.Name, Bio: a.Bio, Photo: a.Photo}
		},
		parse: func(f *formReader) api.AuthorInput {
			return api.AuthorInput{Name: f.str("name"), Bio: f.str("bio"), Photo: f.str("photo")}
		},
	}
}

func (s *Server) genres() *resource[api.Genre, api.GenreInput] {
	return &resource[api.Genre, api.GenreInput]{
		path:   "genres",
		page:   "genres",
		entity: events.Genre,
		noun:   "Genre",
		plural: "Genres",
		list: func(ctx context.Context, token string, _ *http.Request) (any, error) {
			return s.api.SellerGenres(ctx, token)
		},
		get:    s.api.SellerGenre,
		create: s.api.CreateGenre,
		update: s.api.UpdateGenre,
		remove: s.api.DeleteGenre,
		id:     func(g *api.Genre) string { return g.ID },
		input: func(g *api.Genre) api.GenreInput {
			return api.GenreInput{Name: g.Name, Description: g.Description}
		},
		parse: func(f *formReader) api.GenreInput {
			return api.GenreInput{Name: f.str("name"), Description: f.str("description")}
		},
	}
}

func (s *Server) deals() *resource[api.Deal, api.DealInput] {
	return &resource[api.Deal, api.DealInput]{
		path:   "deals",
		page:   "deals",
		entity: events.Deal,
		noun:   "Deal",
		plural: "Deals",
		needs:  needBooks | needGenres,
		list: func(ctx context.Context, token string, _ *http.Request) (any, error) {
			return s.api.SellerDeals(ctx, token)
		},
		get:    s.api.SellerDeal,
		create: s.api.CreateDeal,
		update: s.api.UpdateDeal,
		remove: s.api.DeleteDeal,
		id:     func(d *api.Deal) string { return d.ID },
		input: func(d *api.Deal) api.DealInput {
			return api.DealInput{
				Name:          d.Name,
				Description:   d.Description,
				Type:          d.Type,
				DiscountType:  d.DiscountType,
				DiscountValue: d.DiscountValue,
				StartDate:     d.StartDate,
				EndDate:       d.EndDate,
				IsActive:      d.IsActive,
				Books:         d.Books,
				Genres:        d.Genres,
			}
		},
		parse: parseDeal,
		blank: api.DealInput{
			Type:         pricing.FlashSale,
			DiscountType: pricing.Percentage,
			IsActive:     true,
		},
	}
}

// parseDeal reads the deal form. A BOGO deal carries no discount value and
// a percentage cannot exceed 100.
func parseDeal(f *formReader) api.DealInput {
	in := api.DealInput{
		Name:          f.str("name"),
		Description:   f.str("description"),
		Type:          pricing.DealType(f.str("dealType")),
		DiscountType:  pricing.DiscountType(f.str("discountType")),
		DiscountValue: f.number("discountValue"),
		StartDate:     f.when("startDate"),
		EndDate:       f.when("endDate"),
		IsActive:      f.checked("isActive"),
		Books:         f.list("applicableBooks"),
		Genres:        f.list("applicableGenres"),
	}
	switch {
	case in.Type == pricing.BOGO:
		in.DiscountValue = 0
		if in.DiscountType == "" {
			in.DiscountType = pricing.Percentage
		}
	case in.DiscountType == pricing.Percentage && in.DiscountValue > 100:
		f.fail("discountValue", "Must be at most 100.")
	}
	if len(in.Books) == 0 && len(in.Genres) == 0 {
		f.fail("applicableBooks", "Pick at least one book or genre.")
	}
	return in
}

func (s *Server) sections() *resource[api.HomeSection, api.SectionInput] {
	return &resource[api.HomeSection, api.SectionInput]{
		path:   "sections",
		page:   "sections",
		entity: events.Section,
		noun:   "Section",
		plural: "Home sections",
		needs:  needBooks | needGenres,
		list: func(ctx context.Context, token string, _ *http.Request) (any, error) {
			return s.api.SellerSections(ctx, token)
		},
		get:    s.api.SellerSection,
		create: s.api.CreateSection,
		update: s.api.UpdateSection,
		remove: s.api.DeleteSection,
		id:     func(h *api.HomeSection) string { return h.ID },
		input: func(h *api.HomeSection) api.SectionInput {
			in := api.SectionInput{Title: h.Title, Type: h.Type, Order: h.Order, Active: h.Active}
			for _, b := range h.Books {
				in.Books = append(in.Books, b.ID)
			}
			if h.Genre != nil {
				in.Genre = h.Genre.ID
			}
			return in
		},
		parse: func(f *formReader) api.SectionInput {
			in := api.SectionInput{
				Title:  f.str("title"),
				Type:   f.str("type"),
				Books:  f.list("books"),
				Genre:  f.str("genre"),
				Order:  f.integer("order"),
				Active: f.checked("isActive"),
			}
			if in.Type == "genre" && in.Genre == "" {
				f.fail("genre", "Choose the genre this section shows.")
			}
			if in.Type != "genre" {
				in.Genre = ""
			}
			return in
		},
		blank: api.SectionInput{Type: "featured", Active: true},
	}
}

func (s *Server) slides() *resource[api.HeroSlide, api.SlideInput] {
	return &resource[api.HeroSlide, api.SlideInput]{
		path:   "slides",
		page:   "slides",
		entity: events.Slide,
		noun:   "Slide",
		plural: "Hero slides",
		list: func(ctx context.Context, token string, _ *http.Request) (any, error) {
			return s.api.SellerSlides(ctx, token)
		},
		get:    s.api.SellerSlide,
		create: s.api.CreateSlide,
		update: s.api.UpdateSlide,
		remove: s.api.DeleteSlide,
		id:     func(h *api.HeroSlide) string { return h.ID },
		input: func(h *api.HeroSlide) api.SlideInput {
			return api.SlideInput{Title: h.Title, Subtitle: h.Subtitle, Image: h.Image, Link: h.Link, Order: h.Order, Active: h.Active}
		},
		parse: func(f *formReader) api.SlideInput {
			return api.SlideInput{
				Title:    f.str("title"),
				Subtitle: f.str("subtitle"),
				Image:    f.str("image"),
				Link:     f.str("link"),
				Order:    f.integer("order"),
				Active:   f.checked("isActive"),
			}
		},
		blank: api.SlideInput{Active: true},
	}
}
