package models

// CheckoutSession is the part of a completed payment session the workflow
// needs. It is built from the Stripe webhook payload or fetched from Stripe.
type CheckoutSession struct {
	ID              string            `json:"id"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	CustomerName    string            `json:"customer_name,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ShippingAddress *ShippingAddress  `json:"shipping_address,omitempty"`
}
