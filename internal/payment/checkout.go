// Package payment talks to the Stripe Checkout REST API. Only the session
// endpoint is used; everything else about the payment lifecycle stays on
// Stripe's side.
package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/gotours/tour-booking-api/internal/model"
)

const sessionsURL = "https://api.stripe.com/v1/checkout/sessions"

// Session is the subset of a Stripe checkout session the API exposes.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client creates checkout sessions. A zero secret key disables it, which
// keeps local development working without Stripe credentials.
type Client struct {
	http   *resty.Client
	secret string
}

func NewClient(secretKey string) *Client {
	return &Client{
		http:   resty.New(),
		secret: secretKey,
	}
}

// Enabled reports whether a secret key was configured.
func (c *Client) Enabled() bool { return c.secret != "" }

// CreateSession opens a checkout session for one tour. successURL and
// cancelURL are where Stripe sends the customer afterwards; the tour and
// user identifiers travel in client_reference_id and metadata so the
// completed payment can be tied back to a booking.
func (c *Client) CreateSession(ctx context.Context, tour model.Tour, userID uint64, email, successURL, cancelURL string) (Session, error) {
	var (
		sess   Session
		apiErr stripeError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.secret).
		SetFormData(map[string]string{
			"mode":                                "payment",
			"success_url":                         successURL,
			"cancel_url":                          cancelURL,
			"customer_email":                      email,
			"client_reference_id":                 strconv.FormatUint(tour.ID, 10),
			"metadata[user_id]":                   strconv.FormatUint(userID, 10),
			"line_items[0][quantity]":             "1",
			"line_items[0][price_data][currency]": "usd",
			"line_items[0][price_data][unit_amount]":            strconv.FormatInt(int64(tour.Price*100), 10),
			"line_items[0][price_data][product_data][name]":     tour.Name + " Tour",
			"line_items[0][price_data][product_data][description]": tour.Summary,
		}).
		SetResult(&sess).
		SetError(&apiErr).
		Post(sessionsURL)
	if err != nil {
		return Session{}, fmt.Errorf("stripe request: %w", err)
	}
	if resp.IsError() {
		return Session{}, fmt.Errorf("stripe: %s (status %d)", apiErr.Error.Message, resp.StatusCode())
	}
	return sess, nil
}
