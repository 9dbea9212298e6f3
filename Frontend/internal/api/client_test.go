package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: 2 * time.Second, RetryMax: 2, CacheTTL: time.Minute})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListBooksSendsQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/books", r.URL.Path)
		assert.Equal(t, "tolkien", r.URL.Query().Get("search"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "g1", r.URL.Query().Get("genre"))
		assert.Equal(t, "9.5", r.URL.Query().Get("maxPrice"))
		assert.Empty(t, r.URL.Query().Get("author"))
		writeJSON(w, 200, BookPage{Books: []Book{{ID: "b1", Title: "The Hobbit", Price: 12.5}}, Total: 1, Page: 2, Pages: 2})
	}))

	page, err := c.ListBooks(context.Background(), BookQuery{Search: "tolkien", Page: 2, Genre: "g1", MaxPrice: 9.5})
	require.NoError(t, err)
	require.Len(t, page.Books, 1)
	assert.Equal(t, "The Hobbit", page.Books[0].Title)
	assert.Equal(t, 2, page.Pages)
}

func TestErrorMessageSurfaced(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Book is out of stock"})
	}))

	_, err := c.AddToCart(context.Background(), "tok", "b1", 1)
	require.Error(t, err)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Book is out of stock", Message(err))
}

func TestErrorSentinels(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))

	_, err := c.GetCart(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Unauthorized", Message(err))

	status.Store(http.StatusNotFound)
	_, err = c.GetBook(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
}

func TestMessageFallback(t *testing.T) {
	assert.Equal(t, genericMessage, Message(errors.New("dial tcp: refused")))
}

func TestGetRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, 200, Book{ID: "b1", Title: "Dune"})
	}))

	b, err := c.GetBook(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "payment gateway down"})
	}))

	_, err := c.Checkout(context.Background(), "tok", CheckoutRequest{PaymentMethod: "card"})
	require.Error(t, err)
	assert.Equal(t, "payment gateway down", Message(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAuthorizationAndBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/cart/item%201", r.URL.EscapedPath())
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"quantity":3}`, string(body))
		writeJSON(w, 200, Cart{Items: []CartItem{{ID: "item 1", Quantity: 3}}})
	}))

	cart, err := c.UpdateCartItem(context.Background(), "tok", "item 1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestClearCartNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	assert.NoError(t, c.ClearCart(context.Background(), "tok"))
}

func TestCatalogListsAreCachedUntilPurge(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 200, []Genre{{ID: "g1", Name: "Fantasy"}})
	}))

	for i := 0; i < 3; i++ {
		genres, err := c.ListGenres(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Fantasy", genres[0].Name)
	}
	assert.Equal(t, int32(1), calls.Load())

	c.PurgeCache()
	_, err := c.ListGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestErrorsAreNotCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, 200, []HeroSlide{{ID: "s1", Title: "Summer reads"}})
	}))

	_, err := c.ListHeroSlides(context.Background())
	require.Error(t, err)
	slides, err := c.ListHeroSlides(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Summer reads", slides[0].Title)
}

func TestSellerCRUD(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			writeJSON(w, 200, []Author{{ID: "a1", Name: "Ursula K. Le Guin"}})
		default:
			var in AuthorInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			writeJSON(w, 200, Author{ID: "a1", Name: in.Name})
		}
	}))
	ctx := context.Background()

	authors, err := c.SellerAuthors(ctx, "tok")
	require.NoError(t, err)
	assert.Len(t, authors, 1)

	a, err := c.CreateAuthor(ctx, "tok", AuthorInput{Name: "Octavia Butler"})
	require.NoError(t, err)
	assert.Equal(t, "Octavia Butler", a.Name)

	_, err = c.UpdateAuthor(ctx, "tok", "a1", AuthorInput{Name: "O. E. Butler"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteAuthor(ctx, "tok", "a1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"GET /seller/authors",
		"POST /seller/authors",
		"PUT /seller/authors/a1",
		"DELETE /seller/authors/a1",
	}, seen)
}

func TestBookHelpers(t *testing.T) {
	b := Book{Genres: []Genre{{ID: "g1"}, {ID: "g2"}}}
	assert.Equal(t, "", b.AuthorName())
	assert.Equal(t, []string{"g1", "g2"}, b.GenreIDs())
	b.Author = &Author{Name: "N. K. Jemisin"}
	assert.Equal(t, "N. K. Jemisin", b.AuthorName())
}
