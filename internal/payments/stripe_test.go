package payments_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pawpop-backend/internal/payments"
)

const testSecret = "whsec_test_secret"

func signedEvent(t *testing.T, eventType string, object map[string]interface{}) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":          "evt_123",
		"object":      "event",
		"type":        eventType,
		"api_version": "2020-08-27",
		"created":     time.Now().Unix(),
		"data":        map[string]interface{}{"object": object},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func checkoutObject() map[string]interface{} {
	return map[string]interface{}{
		"id":             "cs_test_abc",
		"object":         "checkout.session",
		"payment_status": "paid",
		"payment_intent": "pi_123",
		"customer_details": map[string]interface{}{
			"email": "jane@example.com",
			"name":  "Jane Doe",
			"phone": "+15125550100",
		},
		"shipping_details": map[string]interface{}{
			"name": "Jane Q Doe",
			"address": map[string]interface{}{
				"line1":       "1 Main St",
				"city":        "Austin",
				"state":       "TX",
				"postal_code": "78701",
				"country":     "US",
			},
		},
		"metadata": map[string]interface{}{
			"productType": "art_print",
			"size":        "12x18",
		},
	}
}

func TestWebhookVerifier_CheckoutCompleted(t *testing.T) {
	payload, header := signedEvent(t, "checkout.session.completed", checkoutObject())

	event, err := payments.NewWebhookVerifier(testSecret).Parse(payload, header)
	require.NoError(t, err)

	assert.True(t, event.IsCheckoutCompleted())
	require.NotNil(t, event.Session)
	assert.Equal(t, "cs_test_abc", event.Session.ID)
	assert.Equal(t, "pi_123", event.Session.PaymentIntentID)
	assert.Equal(t, "jane@example.com", event.Session.CustomerEmail)
	assert.Equal(t, "art_print", event.Session.Metadata["productType"])

	addr := event.Session.ShippingAddress
	require.NotNil(t, addr)
	assert.Equal(t, "Jane", addr.FirstName)
	assert.Equal(t, "Q Doe", addr.LastName)
	assert.Equal(t, "US", addr.Country)
	assert.Equal(t, "TX", addr.Region)
	assert.Equal(t, "78701", addr.Zip)
	assert.Equal(t, "+15125550100", addr.Phone)
}

func TestWebhookVerifier_UnpaidCheckout(t *testing.T) {
	object := checkoutObject()
	object["payment_status"] = "unpaid"
	payload, header := signedEvent(t, "checkout.session.completed", object)

	event, err := payments.NewWebhookVerifier(testSecret).Parse(payload, header)
	require.NoError(t, err)
	assert.False(t, event.IsCheckoutCompleted())
}

func TestWebhookVerifier_BadSignature(t *testing.T) {
	payload, header := signedEvent(t, "checkout.session.completed", checkoutObject())

	_, err := payments.NewWebhookVerifier("whsec_other").Parse(payload, header)
	assert.ErrorIs(t, err, payments.ErrInvalidSignature)
}

func TestWebhookVerifier_OtherEvent(t *testing.T) {
	payload, header := signedEvent(t, "payment_intent.created", map[string]interface{}{"id": "pi_1", "object": "payment_intent"})

	event, err := payments.NewWebhookVerifier(testSecret).Parse(payload, header)
	require.NoError(t, err)
	assert.Nil(t, event.Session)
	assert.False(t, event.IsCheckoutCompleted())
}

func TestFromStripeSession_DigitalHasNoAddress(t *testing.T) {
	session := payments.FromStripeSession(&stripe.CheckoutSession{
		ID:              "cs_digital",
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Email: "a@b.co", Name: "A B"},
	})
	assert.Nil(t, session.ShippingAddress)
	assert.Equal(t, "A B", session.CustomerName)
}
