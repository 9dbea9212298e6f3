package main

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/cart"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/money"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

type cartVM struct {
	Rows    []cart.Row
	Summary cart.Summary
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	c, err := s.api.GetCart(ctx, s.Visitor(r).Token)
	if err != nil {
		s.Fail(w, r, err, "/")
		return
	}
	rows := cart.GroupForDisplay(c.Items)
	s.Render(w, r, http.StatusOK, "cart", s.Page(r, "Your cart", cartVM{Rows: rows, Summary: cart.Summarize(rows)}))
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	bookID := r.FormValue("bookId")
	qty := max(atoi(r.FormValue("quantity"), 1), 1)
	to := back(r, "/cart")
	if bookID == "" {
		s.Redirect(w, r, to, session.Failure, "Choose a book to add.")
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	if _, err := s.api.AddToCart(ctx, s.Visitor(r).Token, bookID, qty); err != nil {
		s.Fail(w, r, err, to)
		return
	}
	s.Redirect(w, r, to, session.Success, "Added to cart.")
}

// handleCartUpdate sets a line's quantity; zero or less removes it.
func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	itemID := r.FormValue("itemId")
	qty := atoi(r.FormValue("quantity"), 1)
	if itemID == "" {
		s.Redirect(w, r, "/cart", session.Failure, "That item is no longer in your cart.")
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	token := s.Visitor(r).Token
	var err error
	if qty <= 0 {
		_, err = s.api.RemoveCartItem(ctx, token, itemID)
	} else {
		_, err = s.api.UpdateCartItem(ctx, token, itemID, qty)
	}
	if err != nil {
		s.Fail(w, r, err, "/cart")
		return
	}
	s.Redirect(w, r, "/cart", session.Success, "Cart updated.")
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	if _, err := s.api.RemoveCartItem(ctx, s.Visitor(r).Token, r.FormValue("itemId")); err != nil {
		s.Fail(w, r, err, "/cart")
		return
	}
	s.Redirect(w, r, "/cart", session.Success, "Item removed.")
}

func (s *Server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	if err := s.api.ClearCart(ctx, s.Visitor(r).Token); err != nil {
		s.Fail(w, r, err, "/cart")
		return
	}
	s.Redirect(w, r, "/cart", session.Success, "Cart cleared.")
}

func (s *Server) handleWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	wl, err := s.api.GetWishlist(ctx, s.Visitor(r).Token)
	if err != nil {
		s.Fail(w, r, err, "/")
		return
	}
	s.Render(w, r, http.StatusOK, "wishlist", s.Page(r, "Wishlist", wl.Books))
}

func (s *Server) handleWishlistAdd(w http.ResponseWriter, r *http.Request) {
	to := back(r, "/wishlist")
	ctx, cancel := s.ctx(r)
	defer cancel()
	if _, err := s.api.AddToWishlist(ctx, s.Visitor(r).Token, r.FormValue("bookId")); err != nil {
		s.Fail(w, r, err, to)
		return
	}
	s.Redirect(w, r, to, session.Success, "Saved to your wishlist.")
}

func (s *Server) handleWishlistRemove(w http.ResponseWriter, r *http.Request) {
	to := back(r, "/wishlist")
	ctx, cancel := s.ctx(r)
	defer cancel()
	if _, err := s.api.RemoveFromWishlist(ctx, s.Visitor(r).Token, r.FormValue("bookId")); err != nil {
		s.Fail(w, r, err, to)
		return
	}
	s.Redirect(w, r, to, session.Success, "Removed from your wishlist.")
}

// handleWishlistMove adds the book to the cart and only then drops it from
// the wishlist, so a failed add loses nothing.
func (s *Server) handleWishlistMove(w http.ResponseWriter, r *http.Request) {
	bookID := r.FormValue("bookId")
	token := s.Visitor(r).Token
	ctx, cancel := s.ctx(r)
	defer cancel()

	if _, err := s.api.AddToCart(ctx, token, bookID, 1); err != nil {
		s.Fail(w, r, err, "/wishlist")
		return
	}
	if _, err := s.api.RemoveFromWishlist(ctx, token, bookID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("book", bookID).Msg("moved to cart but still wishlisted")
	}
	s.Redirect(w, r, "/wishlist", session.Success, "Moved to your cart.")
}

type cartSummaryJSON struct {
	Items     int    `json:"items"`
	FreeItems int    `json:"freeItems"`
	Subtotal  string `json:"subtotal"`
	Savings   string `json:"savings"`
	Currency  string `json:"currency"`
}

// handleCartSummary feeds the header cart badge. Guests and stale tokens
// get an empty summary rather than an error.
func (s *Server) handleCartSummary(w http.ResponseWriter, r *http.Request) {
	v := s.Visitor(r)
	out := cartSummaryJSON{Currency: v.Currency, Subtotal: money.FormatFloat(0, v.Currency), Savings: money.FormatFloat(0, v.Currency)}
	if !v.LoggedIn() {
		web.JSON(w, http.StatusOK, out)
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	c, err := s.api.GetCart(ctx, v.Token)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		web.JSON(w, http.StatusOK, out)
		return
	case err != nil:
		web.JSON(w, http.StatusBadGateway, map[string]string{"error": api.Message(err)})
		return
	}
	sum := cart.Summarize(cart.GroupForDisplay(c.Items))
	out.Items = sum.Items
	out.FreeItems = sum.FreeItems
	out.Subtotal = money.Format(sum.Subtotal, v.Currency)
	out.Savings = money.Format(sum.Savings, v.Currency)
	web.JSON(w, http.StatusOK, out)
}
