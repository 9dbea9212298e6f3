package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Seller endpoints live under /seller and require a seller or admin token.

func fetch[T any](ctx context.Context, c *Client, method, path, token string, in any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func item(resource, id string) string {
	return "/seller/" + resource + "/" + url.PathEscape(id)
}

func (c *Client) SellerBooks(ctx context.Context, token string, page int, search string) (*BookPage, error) {
	v := url.Values{}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if search != "" {
		v.Set("search", search)
	}
	return fetch[BookPage](ctx, c, http.MethodGet, withQuery("/seller/books", v), token, nil)
}

func (c *Client) SellerBook(ctx context.Context, token, id string) (*Book, error) {
	return fetch[Book](ctx, c, http.MethodGet, item("books", id), token, nil)
}

func (c *Client) CreateBook(ctx context.Context, token string, in BookInput) (*Book, error) {
	return fetch[Book](ctx, c, http.MethodPost, "/seller/books", token, in)
}

func (c *Client) UpdateBook(ctx context.Context, token, id string, in BookInput) (*Book, error) {
	return fetch[Book](ctx, c, http.MethodPut, item("books", id), token, in)
}

func (c *Client) DeleteBook(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, item("books", id), token, nil, nil)
}

func (c *Client) SellerAuthors(ctx context.Context, token string) ([]Author, error) {
	out, err := fetch[[]Author](ctx, c, http.MethodGet, "/seller/authors", token, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) SellerAuthor(ctx context.Context, token, id string) (*Author, error) {
	return fetch[Author](ctx, c, http.MethodGet, item("authors", id), token, nil)
}

func (c *Client) CreateAuthor(ctx context.Context, token string, in AuthorInput) (*Author, error) {
	return fetch[Author](ctx, c, http.MethodPost, "/seller/authors", token, in)
}

func (c *Client) UpdateAuthor(ctx context.Context, token, id string, in AuthorInput) (*Author, error) {
	return fetch[Author](ctx, c, http.MethodPut, item("authors", id), token, in)
}

func (c *Client) DeleteAuthor(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, item("authors", id), token, nil, nil)
}

func (c *Client) SellerGenres(ctx context.Context, token string) ([]Genre, error) {
	out, err := fetch[[]Genre](ctx, c, http.MethodGet, "/seller/genres", token, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) SellerGenre(ctx context.Context, token, id string) (*Genre, error) {
	return fetch[Genre](ctx, c, http.MethodGet, item("genres", id), token, nil)
}

func (c *Client) CreateGenre(ctx context.Context, token string, in GenreInput) (*Genre, error) {
	return fetch[Genre](ctx, c, http.MethodPost, "/seller/genres", token, in)
}

func (c *Client) UpdateGenre(ctx context.Context, token, id string, in GenreInput) (*Genre, error) {
	return fetch[Genre](ctx, c, http.MethodPut, item("genres", id), token, in)
}

func (c *Client) DeleteGenre(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, item("genres", id), token, nil, nil)
}

func (c *Client) SellerDeals(ctx context.Context, token string) ([]Deal, error) {
	out, err := fetch[[]Deal](ctx, c, http.MethodGet, "/seller/deals", token, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) SellerDeal(ctx context.Context, token, id string) (*Deal, error) {
	return fetch[Deal](ctx, c, http.MethodGet, item("deals", id), token, nil)
}

func (c *Client) CreateDeal(ctx context.Context, token string, in DealInput) (*Deal, error) {
	return fetch[Deal](ctx, c, http.MethodPost, "/seller/deals", token, in)
}

func (c *Client) UpdateDeal(ctx context.Context, token, id string, in DealInput) (*Deal, error) {
	return fetch[Deal](ctx, c, http.MethodPut, item("deals", id), token, in)
}

func (c *Client) DeleteDeal(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, item("deals", id), token, nil, nil)
}

func (c *Client) SellerSections(ctx context.Context, token string) ([]HomeSection, error) {
	out, err := fetch[[]HomeSection](ctx, c, http.MethodGet, "/seller/homepage-sections", token, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) SellerSection(ctx context.Context, token, id string) (*HomeSection, error) {
	return fetch[HomeSection](ctx, c, http.MethodGet, item("homepage-sections", id), token, nil)
}

func (c *Client) CreateSection(ctx context.Context, token string, in SectionInput) (*HomeSection, error) {
	return fetch[HomeSection](ctx, c, http.MethodPost, "/seller/homepage-sections", token, in)
}

func (c *Client) UpdateSection(ctx context.Context, token, id string, in SectionInput) (*HomeSection, error) {
	return fetch[HomeSection](ctx, c, http.MethodPut, item("homepage-sections", id), token, in)
}

func (c *Client) DeleteSection(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, item("homepage-sections", id), token, nil, nil)
}

func (c *Client) SellerSlides(ctx context.Context, token string) ([]HeroSlide, error) {
	out, err := fetch[[]HeroSlide](ctx, c, http.MethodGet, "/seller/hero-slides", token, nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

func (c *Client) SellerSlide(ctx context.Context, token, id string) (*HeroSlide, error) {
	return fetch[HeroSlide](ctx, c, http.MethodGet, item("hero-slides", id), token, nil)
}

func (c *Client) CreateSlide(ctx context.Context, token string, in SlideInput) (*HeroSlide, error) {
	return fetch[HeroSlide](ctx, c, http.MethodPost, "/seller/hero-slides", token, in)
}

func (c *Client) UpdateSlide(ctx context.Context, token, id string, in SlideInput) (*HeroSlide, error) {
	return fetch[HeroSlide](ctx, c, http.MethodPut, item("hero-slides", id), token, in)
}

func (c *Client) DeleteSlide(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, item("hero-slides", id), token, nil, nil)
}

type SellerStats struct {
	Books       int `json:"totalBooks"`
	Authors     int `json:"totalAuthors"`
	Genres      int `json:"totalGenres"`
	ActiveDeals int `json:"activeDeals"`
	LowStock    int `json:"lowStock"`
}

func (c *Client) SellerStats(ctx context.Context, token string) (*SellerStats, error) {
	return fetch[SellerStats](ctx, c, http.MethodGet, "/seller/stats", token, nil)
}
