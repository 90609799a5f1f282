package printify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

const SignatureHeader = "X-Pfy-Signature"

// WebhookEvent is the envelope Printify posts for order events.
type WebhookEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Resource struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			ShopID json.Number `json:"shop_id"`
			Status string      `json:"status"`
		} `json:"data"`
	} `json:"resource"`
}

// SignBody returns the signature header value for body.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	expected := SignBody(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}
