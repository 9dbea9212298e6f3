package main

import (
	"net/http"
	"strings"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/api"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/cart"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/session"
	"github.com/ahinestrog/mybookstore-web/Frontend/internal/web"
)

type checkoutVM struct {
	Rows    []cart.Row
	Summary cart.Summary
	Methods []string
}

var paymentMethods = []string{"card", "paypal", "cod"}

// checkoutPage renders the form for the current cart. An empty cart sends
// the visitor back to /cart.
func (s *Server) checkoutPage(w http.ResponseWriter, r *http.Request, status int, form api.CheckoutRequest, errs web.FieldErrors) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	c, err := s.api.GetCart(ctx, s.Visitor(r).Token)
	if err != nil {
		s.Fail(w, r, err, "/cart")
		return
	}
	if len(c.Items) == 0 {
		s.Redirect(w, r, "/cart", session.Failure, "Your cart is empty.")
		return
	}
	rows := cart.GroupForDisplay(c.Items)
	p := s.Page(r, "Checkout", checkoutVM{Rows: rows, Summary: cart.Summarize(rows), Methods: paymentMethods})
	p.Form = form
	p.Errors = errs
	s.Render(w, r, status, "checkout", p)
}

func (s *Server) handleCheckoutForm(w http.ResponseWriter, r *http.Request) {
	s.checkoutPage(w, r, http.StatusOK, api.CheckoutRequest{PaymentMethod: "card"}, nil)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	v := s.Visitor(r)
	form := api.CheckoutRequest{
		ShippingAddress: api.Address{
			Street:     strings.TrimSpace(r.FormValue("street")),
			City:       strings.TrimSpace(r.FormValue("city")),
			State:      strings.TrimSpace(r.FormValue("state")),
			PostalCode: strings.TrimSpace(r.FormValue("postalCode")),
			Country:    strings.TrimSpace(r.FormValue("country")),
		},
		PaymentMethod: r.FormValue("paymentMethod"),
		Currency:      v.Currency,
	}
	if errs := web.Validate(form); errs != nil {
		s.checkoutPage(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}

	ctx, cancel := s.ctx(r)
	defer cancel()
	order, err := s.api.Checkout(ctx, v.Token, form)
	if err != nil {
		s.Fail(w, r, err, "/checkout")
		return
	}
	if order.PaymentURL != "" {
		s.Save(w, r)
		http.Redirect(w, r, order.PaymentURL, http.StatusSeeOther)
		return
	}
	s.Redirect(w, r, "/orders", session.Success, "Order placed. Thank you!")
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	orders, err := s.api.ListOrders(ctx, s.Visitor(r).Token)
	if err != nil {
		s.Fail(w, r, err, "/")
		return
	}
	s.Render(w, r, http.StatusOK, "orders", s.Page(r, "Your orders", orders))
}
