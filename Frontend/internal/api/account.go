package api

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) Login(ctx context.Context, in Credentials) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in Registration) (*AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- cart ---

func (c *Client) GetCart(ctx context.Context, token string) (*Cart, error) {
	var out Cart
	if err := c.do(ctx, http.MethodGet, "/cart", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, token, bookID string, qty int) (*Cart, error) {
	in := struct {
		BookID   string `json:"bookId"`
		Quantity int    `json:"quantity"`
	}{bookID, qty}
	var out Cart
	if err := c.do(ctx, http.MethodPost, "/cart", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, token, itemID string, qty int) (*Cart, error) {
	in := struct {
		Quantity int `json:"quantity"`
	}{qty}
	var out Cart
	if err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(itemID), token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, token, itemID string) (*Cart, error) {
	var out Cart
	if err := c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearCart(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/cart", token, nil, nil)
}

// --- wishlist ---

func (c *Client) GetWishlist(ctx context.Context, token string) (*Wishlist, error) {
	var out Wishlist
	if err := c.do(ctx, http.MethodGet, "/wishlist", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToWishlist(ctx context.Context, token, bookID string) (*Wishlist, error) {
	in := struct {
		BookID string `json:"bookId"`
	}{bookID}
	var out Wishlist
	if err := c.do(ctx, http.MethodPost, "/wishlist", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveFromWishlist(ctx context.Context, token, bookID string) (*Wishlist, error) {
	var out Wishlist
	if err := c.do(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(bookID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- orders ---

func (c *Client) Checkout(ctx context.Context, token string, in CheckoutRequest) (*Order, error) {
	var out Order
	if err := c.do(ctx, http.MethodPost, "/orders/checkout", token, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]Order, error) {
	var out []Order
	err := c.do(ctx, http.MethodGet, "/orders", token, nil, &out)
	return out, err
}
