package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignCheckout computes the hex HMAC-SHA256 signature the gateway attaches
// to a completed checkout, computed over "<orderID>|<paymentID>".
func SignCheckout(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCheckoutSignature validates a checkout confirmation signature in
// constant time.
func VerifyCheckoutSignature(secret, orderID, paymentID, signature string) bool {
	expected := SignCheckout(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature validates the signature header of a webhook
// delivery against the exact raw request body.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
