package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"pawpop-backend/internal/models"
)

const SignatureHeader = "Stripe-Signature"

var ErrInvalidSignature = errors.New("invalid stripe signature")

// Event is a verified Stripe webhook event. Session is set for checkout
// session events only.
type Event struct {
	ID      string
	Type    string
	Paid    bool
	Session *models.CheckoutSession
}

// IsCheckoutCompleted reports whether the event confirms a paid checkout.
func (e *Event) IsCheckoutCompleted() bool {
	switch stripe.EventType(e.Type) {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		return e.Session != nil && e.Paid
	}
	return false
}

type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Parse verifies the signature header and decodes the event.
func (v *WebhookVerifier) Parse(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		stripe.EventTypeCheckoutSessionExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.Session = FromStripeSession(&session)
		out.Paid = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	}
	return out, nil
}

// FromStripeSession keeps the fields the order workflow needs.
func FromStripeSession(s *stripe.CheckoutSession) *models.CheckoutSession {
	out := &models.CheckoutSession{
		ID:            s.ID,
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}

	var phone string
	var billing *stripe.Address
	if d := s.CustomerDetails; d != nil {
		if d.Email != "" {
			out.CustomerEmail = d.Email
		}
		out.CustomerName = d.Name
		phone = d.Phone
		billing = d.Address
	}

	name := out.CustomerName
	address := billing
	if sd := s.ShippingDetails; sd != nil && sd.Address != nil {
		address = sd.Address
		if sd.Name != "" {
			name = sd.Name
		}
		if sd.Phone != "" {
			phone = sd.Phone
		}
	}
	if address == nil || address.Country == "" {
		return out
	}

	first, last := models.SplitName(name)
	out.ShippingAddress = &models.ShippingAddress{
		FirstName: first,
		LastName:  last,
		Email:     out.CustomerEmail,
		Phone:     phone,
		Country:   address.Country,
		Region:    address.State,
		Address1:  address.Line1,
		Address2:  address.Line2,
		City:      address.City,
		Zip:       address.PostalCode,
	}
	return out
}

// SessionClient reads checkout sessions back from Stripe. The workflow uses
// it when an order is missing its stored metadata.
type SessionClient struct {
	api *client.API
}

func NewSessionClient(secretKey string, backends *stripe.Backends) *SessionClient {
	return &SessionClient{api: client.New(secretKey, backends)}
}

func (c *SessionClient) GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session %s: %w", sessionID, err)
	}
	return FromStripeSession(session), nil
}
