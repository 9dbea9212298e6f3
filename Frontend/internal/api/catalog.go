package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (q BookQuery) values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Genre != "" {
		v.Set("genre", q.Genre)
	}
	if q.Author != "" {
		v.Set("author", q.Author)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.MinPrice > 0 {
		v.Set("minPrice", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		v.Set("maxPrice", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	return v
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func (c *Client) ListBooks(ctx context.Context, q BookQuery) (*BookPage, error) {
	var out BookPage
	if err := c.do(ctx, http.MethodGet, withQuery("/books", q.values()), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBook(ctx context.Context, id string) (*Book, error) {
	var out Book
	if err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListReviews(ctx context.Context, bookID string) ([]Review, error) {
	var out []Review
	err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(bookID)+"/reviews", "", nil, &out)
	return out, err
}

func (c *Client) AddReview(ctx context.Context, token, bookID string, in ReviewInput) (*Review, error) {
	var out Review
	if err := c.do(ctx, http.MethodPost, "/books/"+url.PathEscape(bookID)+"/reviews", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAuthors(ctx context.Context) ([]Author, error) {
	var out []Author
	err := c.cached(ctx, "/authors", &out)
	return out, err
}

// GetAuthor returns the author with their books populated.
func (c *Client) GetAuthor(ctx context.Context, id string) (*Author, error) {
	var out Author
	if err := c.do(ctx, http.MethodGet, "/authors/"+url.PathEscape(id), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGenres(ctx context.Context) ([]Genre, error) {
	var out []Genre
	err := c.cached(ctx, "/genres", &out)
	return out, err
}

func (c *Client) ListActiveDeals(ctx context.Context) ([]Deal, error) {
	var out []Deal
	err := c.cached(ctx, "/deals/active", &out)
	return out, err
}

func (c *Client) ListHomeSections(ctx context.Context) ([]HomeSection, error) {
	var out []HomeSection
	err := c.cached(ctx, "/homepage/sections", &out)
	return out, err
}

func (c *Client) ListHeroSlides(ctx context.Context) ([]HeroSlide, error) {
	var out []HeroSlide
	err := c.cached(ctx, "/hero-slides", &out)
	return out, err
}
